//go:build !windows

package daemon

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRun_SignalsDriveReloadAndTerminate(t *testing.T) {
	c, _ := newTestController(t, Options{HandleSignals: true})
	var reinits atomic.Int32
	require.NoError(t, c.SetReinitHook(func(context.Context) error {
		reinits.Add(1)
		return nil
	}))

	done := runAsync(c, context.Background(), nil)
	// The signal source is installed before the running state is entered.
	require.Eventually(t, func() bool { return c.State() == StateRunning }, waitTimeout, 5*time.Millisecond)

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGHUP))
	require.Eventually(t, func() bool { return reinits.Load() == 1 }, waitTimeout, 5*time.Millisecond)

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGTERM))
	assert.Equal(t, 0, waitExit(t, done))
	assert.Equal(t, StateStopped, c.State())
}
