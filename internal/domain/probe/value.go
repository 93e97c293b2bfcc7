package probe

import (
	"context"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/cache"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
)

const (
	// Value is what ValueService computes
	Value = "THE VALUE"
	// ValueCache names the cache holding GetValue results
	ValueCache = "getValue"
)

// ValueService computes a constant value
type ValueService struct {
	logger *logging.Logger
}

func NewValueService(logger *logging.Logger) *ValueService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ValueService{logger: logger}
}

// GetValue logs and returns Value
func (s *ValueService) GetValue(ctx context.Context) string {
	s.logger.For(ctx).Info("Ran getValue")
	return Value
}

// CachedValueService wraps ValueService with a lookup in the getValue cache.
// The key is built from GetValue's arguments, which is none, so every call
// shares one entry.
type CachedValueService struct {
	next   *ValueService
	caches *cache.Manager
	logger *logging.Logger
}

func NewCachedValueService(next *ValueService, caches *cache.Manager, logger *logging.Logger) *CachedValueService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CachedValueService{next: next, caches: caches, logger: logger}
}

// GetValue returns the cached value, computing it on first use
func (s *CachedValueService) GetValue(ctx context.Context) (string, error) {
	s.logger.For(ctx).Info("inside aop jp")

	return cache.GetOrLoad(s.caches, ValueCache, cache.Key(), func() (string, error) {
		return s.next.GetValue(ctx), nil
	})
}
