// Package cache provides named LRU caches for memoizing service calls.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSize = 128

// Manager owns a set of named caches created on first use
type Manager struct {
	size    int
	metrics *monitoring.Metrics

	mu     sync.Mutex
	caches map[string]*lru.Cache[string, any]
}

// Option configures a Manager
type Option func(*Manager)

// WithMetrics records hits and misses
func WithMetrics(m *monitoring.Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager creates a manager whose caches hold up to size entries each
func NewManager(size int, opts ...Option) *Manager {
	if size <= 0 {
		size = defaultSize
	}
	m := &Manager{
		size:   size,
		caches: make(map[string]*lru.Cache[string, any]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key joins the string form of args with ","; nil arguments become "".
func Key(args ...any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg != nil {
			parts[i] = fmt.Sprint(arg)
		}
	}
	return strings.Join(parts, ",")
}

func (m *Manager) cache(name string) *lru.Cache[string, any] {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[name]
	if !ok {
		// lru.New only fails for non-positive sizes.
		c, _ = lru.New[string, any](m.size)
		m.caches[name] = c
	}
	return c
}

// GetOrLoad returns the cached value for key or calls loader. Only
// successful loads are stored.
func GetOrLoad[T any](m *Manager, name, key string, loader func() (T, error)) (T, error) {
	c := m.cache(name)

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			m.metrics.RecordCacheLookup(name, true)
			return typed, nil
		}
	}
	m.metrics.RecordCacheLookup(name, false)

	v, err := loader()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Add(key, v)
	return v, nil
}

// Evict drops key from the named cache
func (m *Manager) Evict(name, key string) {
	m.cache(name).Remove(key)
}

// Stats returns entry counts per cache
func (m *Manager) Stats() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int, len(m.caches))
	for name, c := range m.caches {
		out[name] = c.Len()
	}
	return out
}
