package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/lifecycle"
)

func TestWaitForStartupSetsReady(t *testing.T) {
	lc := lifecycle.New()
	var ran atomic.Int32

	lc.OnStartup(func() { ran.Add(1) })
	lc.OnStartup(func() { ran.Add(1) })

	assert.False(t, lc.Ready())
	lc.WaitForStartup()

	assert.True(t, lc.Ready())
	assert.Equal(t, int32(2), ran.Load())
}

func TestShutdownRunsHooksAfterCancel(t *testing.T) {
	lc := lifecycle.New()
	var closed atomic.Bool

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		closed.Store(true)
	})

	require.NoError(t, lc.Shutdown(time.Second))
	assert.True(t, closed.Load())
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	defer close(release)

	lc.OnShutdown(func() { <-release })

	err := lc.Shutdown(10 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown timeout")
}

func TestProbe(t *testing.T) {
	lc := lifecycle.New()
	down := errors.New("connection refused")

	lc.AddCheck("database", func(context.Context) error { return nil })
	lc.AddCheck("storage", func(context.Context) error { return down })

	failures := lc.Probe(context.Background())
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["storage"], down)
}

func TestProbeReplacesCheck(t *testing.T) {
	lc := lifecycle.New()

	lc.AddCheck("database", func(context.Context) error { return errors.New("down") })
	lc.AddCheck("database", func(context.Context) error { return nil })

	assert.Empty(t, lc.Probe(context.Background()))
}
