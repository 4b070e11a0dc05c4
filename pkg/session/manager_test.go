package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
	"github.com/entrhq/atlas-bridge/pkg/session/sessiontest"
)

func newManager(t *testing.T) (*session.Manager, *sessiontest.Launcher) {
	t.Helper()
	launcher := &sessiontest.Launcher{}
	opts := session.LaunchOptions{Headless: true, Viewport: session.Viewport{Width: 1280, Height: 720}}
	return session.NewManager(launcher, opts, logging.Discard()), launcher
}

func TestAcquire_LaunchesLazily(t *testing.T) {
	m, launcher := newManager(t)

	assert.Nil(t, m.Current())
	assert.False(t, m.Alive())
	assert.Equal(t, 0, launcher.Launches())

	s, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NotNil(t, s.Page)
	assert.Equal(t, 1, launcher.Launches())
	assert.Same(t, s, m.Current())
	assert.True(t, m.Alive())
}

func TestAcquire_ReusesLiveSession(t *testing.T) {
	m, launcher := newManager(t)
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, launcher.Launches())
	assert.Equal(t, 1, launcher.Page(0).Count("eval liveness"))
}

func TestAcquire_RelaunchesAfterDisconnect(t *testing.T) {
	m, launcher := newManager(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s, err := m.Acquire(ctx)
		require.NoError(t, err)

		// browser and page are present together
		require.NotNil(t, s)
		require.NotNil(t, s.Page)
		assert.Same(t, s, m.Current())

		// simulate a crashed browser before the next call
		s.Page.(*sessiontest.Page).Break(errors.New("target closed"))
	}

	assert.Equal(t, 5, launcher.Launches())
	// each dead session was closed before its replacement launched
	assert.Equal(t, 4, launcher.Closes())
}

func TestAcquire_LaunchFailurePropagates(t *testing.T) {
	m, launcher := newManager(t)
	launcher.Err = errors.New("chromium not installed")

	s, err := m.Acquire(context.Background())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, launcher.Err)
	assert.Nil(t, m.Current())
}

func TestAcquire_CanceledContext(t *testing.T) {
	m, launcher := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, launcher.Launches())
}

func TestAcquire_ForwardsConsole(t *testing.T) {
	var buf bytes.Buffer
	launcher := &sessiontest.Launcher{}
	m := session.NewManager(launcher, session.LaunchOptions{}, logging.NewWriterLogger("session", &buf, logging.LevelNormal))

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	launcher.Page(0).EmitConsole("log", "Found 3 table rows")
	assert.Contains(t, buf.String(), "browser console [log]: Found 3 table rows")
}

func TestRelease_Idempotent(t *testing.T) {
	m, launcher := newManager(t)

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Release())
	require.NoError(t, m.Release())

	assert.Nil(t, m.Current())
	assert.Equal(t, 1, launcher.Closes())
	assert.True(t, launcher.Page(0).Closed())
}

func TestShutdown(t *testing.T) {
	m, launcher := newManager(t)

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Shutdown())
	assert.True(t, launcher.Stopped())
	assert.Nil(t, m.Current())

	// a later Acquire starts over
	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, launcher.Launches())
}

func TestSession_CloseOnce(t *testing.T) {
	calls := 0
	s := session.NewSession("s", sessiontest.NewPage(), func() error {
		calls++
		return errors.New("boom")
	})

	assert.EqualError(t, s.Close(), "boom")
	assert.EqualError(t, s.Close(), "boom")
	assert.Equal(t, 1, calls)
}
