package hotkey

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	presses      chan struct{}
	registered   atomic.Bool
	unregistered atomic.Int32
	registerErr  error
}

func newFakeSource() *fakeSource {
	return &fakeSource{presses: make(chan struct{})}
}

func (f *fakeSource) Register() error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered.Store(true)
	return nil
}

func (f *fakeSource) Unregister() error {
	f.unregistered.Add(1)
	return nil
}

func (f *fakeSource) Presses() <-chan struct{} {
	return f.presses
}

func TestListener_CallsOnPress(t *testing.T) {
	src := newFakeSource()
	var count atomic.Int32
	l := NewListener(src, func() { count.Add(1) }, zerolog.Nop())

	require.NoError(t, l.Start(context.Background()))
	assert.True(t, src.registered.Load())

	src.presses <- struct{}{}
	src.presses <- struct{}{}
	require.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, l.Stop())
	assert.Equal(t, int32(1), src.unregistered.Load())
}

func TestListener_StopIsIdempotent(t *testing.T) {
	src := newFakeSource()
	l := NewListener(src, func() {}, zerolog.Nop())

	require.NoError(t, l.Stop())
	require.NoError(t, l.Start(context.Background()))
	require.NoError(t, l.Stop())
	require.NoError(t, l.Stop())
	assert.Equal(t, int32(1), src.unregistered.Load())
}

func TestListener_StopsWithContext(t *testing.T) {
	src := newFakeSource()
	var count atomic.Int32
	l := NewListener(src, func() { count.Add(1) }, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Start(ctx))
	cancel()

	require.NoError(t, l.Stop())
	select {
	case src.presses <- struct{}{}:
		t.Fatal("press consumed after stop")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Zero(t, count.Load())
}

func TestListener_StartTwiceFails(t *testing.T) {
	l := NewListener(newFakeSource(), func() {}, zerolog.Nop())
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	assert.Error(t, l.Start(context.Background()))
}

func TestListener_RegisterError(t *testing.T) {
	src := newFakeSource()
	src.registerErr = errors.New("display unavailable")
	l := NewListener(src, func() {}, zerolog.Nop())

	assert.Error(t, l.Start(context.Background()))
	require.NoError(t, l.Stop())
	assert.Zero(t, src.unregistered.Load())
}
