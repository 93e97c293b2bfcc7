// Package id provides centralized ID generation for the probe service.
//
// Two families of identifiers live here:
//   - Trace identifiers: 128-bit trace ids and 64-bit span ids in the W3C
//     trace-context layout. Trace ids are ULIDs, so they sort by creation time.
//   - Work identifiers: prefixed ULIDs for executor tasks and scheduled runs,
//     and JMS-style "ID:<uuid>" message ids.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

// TaskID identifies a task submitted to an executor
type TaskID string

// RunID identifies one execution of a scheduled job
type RunID string

// MessageID identifies a queued message
type MessageID string

const (
	TaskPrefix    = "task"
	RunPrefix     = "run"
	MessagePrefix = "ID:"
)

// Generator generates ULIDs and span ids from a shared entropy source
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Deterministic readers make ids reproducible in tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// TraceID returns a ULID reinterpreted as a W3C trace id.
// The millisecond timestamp occupies the high bytes, so a ULID is never all zero.
func (g *Generator) TraceID() trace.TraceID {
	return trace.TraceID(g.Generate())
}

// SpanID returns a random non-zero 64-bit span id.
func (g *Generator) SpanID() trace.SpanID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	var sid trace.SpanID
	for !sid.IsValid() {
		if _, err := io.ReadFull(g.entropy, sid[:]); err != nil {
			// Entropy exhausted; fall back to the clock so ids stay valid.
			binary.BigEndian.PutUint64(sid[:], uint64(time.Now().UnixNano())|1)
		}
	}
	return sid
}

// NewTraceID generates a trace id from the default generator
func NewTraceID() trace.TraceID {
	return Default().TraceID()
}

// NewSpanID generates a span id from the default generator
func NewSpanID() trace.SpanID {
	return Default().SpanID()
}

// NewTaskID generates a new executor task ID
func NewTaskID() TaskID {
	return TaskID(Default().GenerateWithPrefix(TaskPrefix))
}

// NewRunID generates a new scheduled run ID
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}

// NewMessageID generates a message id in the "ID:<uuid>" form used by JMS brokers
func NewMessageID() MessageID {
	return MessageID(MessagePrefix + uuid.NewString())
}

func (id TaskID) String() string    { return string(id) }
func (id RunID) String() string     { return string(id) }
func (id MessageID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// TraceTimestamp extracts the creation time encoded in a trace id produced by TraceID
func TraceTimestamp(tid trace.TraceID) time.Time {
	return ulid.Time(ulid.ULID(tid).Time())
}
