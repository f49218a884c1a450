package heap

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newSimulated(t *testing.T, cfg Config) *Simulated {
	t.Helper()
	s, err := NewSimulated(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func requireFatal(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		require.NotNil(t, rec, "expected a fatal contract violation")
		err, ok := rec.(error)
		require.True(t, ok, "panic value %v is not an error", rec)
		require.True(t, errors.IsAssertionFailure(err), "panic %v is not an assertion failure", err)
	}()
	fn()
}
