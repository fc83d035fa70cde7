package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	successfulService := func() error { return nil }
	errService := errors.New("service error")
	failingService := func() error { return errService }

	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker(Config{
		RecordLength:     10,
		Timeout:          2 * time.Second,
		Percentile:       0.3,
		RecoveryRequests: 3,
	}, clk.now)

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(successfulService))
	}
	require.Equal(t, Closed, cb.State())

	// 3 of the last 10 calls failing trips the breaker.
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Call(failingService), errService)
	}
	require.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCB)
	require.False(t, called)

	clk.t = clk.t.Add(3 * time.Second)
	require.NoError(t, cb.Call(successfulService))
	require.Equal(t, HalfOpen, cb.State())

	// a failure while half-open re-opens immediately
	require.ErrorIs(t, cb.Call(failingService), errService)
	require.Equal(t, Open, cb.State())

	clk.t = clk.t.Add(3 * time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Call(successfulService))
	}
	require.Equal(t, Closed, cb.State())
}

func Test_circuitBreaker_Reset(t *testing.T) {
	t.Parallel()
	cb := New(Config{RecordLength: 2, Timeout: time.Hour, Percentile: 0.5, RecoveryRequests: 1})
	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	require.Equal(t, Open, cb.State())

	cb.Reset()
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
}
