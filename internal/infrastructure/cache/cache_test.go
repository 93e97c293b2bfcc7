package cache

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want string
	}{
		{"no args", nil, ""},
		{"single", []any{"a"}, "a"},
		{"mixed", []any{"a", 1, true}, "a,1,true"},
		{"nil arg", []any{"a", nil, "b"}, "a,,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.args...))
		})
	}
}

func TestGetOrLoad(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := NewManager(8, WithMetrics(metrics))

	calls := 0
	loader := func() (string, error) {
		calls++
		return "THE VALUE", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(m, "getValue", Key(), loader)
		require.NoError(t, err)
		assert.Equal(t, "THE VALUE", v)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("getValue", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("getValue", "hit")))
	assert.Equal(t, map[string]int{"getValue": 1}, m.Stats())
}

func TestFailedLoadIsNotStored(t *testing.T) {
	m := NewManager(0)

	_, err := GetOrLoad(m, "c", "k", func() (int, error) { return 0, errors.New("down") })
	assert.Error(t, err)

	v, err := GetOrLoad(m, "c", "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCachesAreIndependentAndBounded(t *testing.T) {
	m := NewManager(2)

	for _, k := range []string{"a", "b", "c"} {
		_, _ = GetOrLoad(m, "small", k, func() (string, error) { return k, nil })
	}
	_, _ = GetOrLoad(m, "other", "a", func() (string, error) { return "x", nil })

	assert.Equal(t, map[string]int{"small": 2, "other": 1}, m.Stats())

	m.Evict("other", "a")
	assert.Equal(t, 0, m.Stats()["other"])
}
