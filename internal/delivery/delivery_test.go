package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events   []string
	clipErr  error
	pasteErr error
}

func (r *recorder) WriteAll(text string) error {
	r.events = append(r.events, "copy:"+text)
	return r.clipErr
}

func (r *recorder) Paste() error {
	r.events = append(r.events, "paste")
	return r.pasteErr
}

func (r *recorder) Confirm() error {
	r.events = append(r.events, "confirm")
	return nil
}

func newRecordingDeliverer(r *recorder) *Deliverer {
	d := New(r, r, DefaultPasteDelay, DefaultConfirmDelay, zerolog.Nop())
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		r.events = append(r.events, "sleep:"+dur.String())
		return ctx.Err()
	}
	return d
}

func TestDeliver_SequenceAndDelays(t *testing.T) {
	r := &recorder{}
	require.NoError(t, newRecordingDeliverer(r).Deliver(context.Background(), "doc"))

	assert.Equal(t, []string{"copy:doc", "sleep:150ms", "paste", "sleep:50ms", "confirm"}, r.events)
}

func TestDeliver_ClipboardFailureStops(t *testing.T) {
	r := &recorder{clipErr: errors.New("no clipboard utility")}
	err := newRecordingDeliverer(r).Deliver(context.Background(), "doc")

	require.Error(t, err)
	assert.Equal(t, []string{"copy:doc"}, r.events)
}

func TestDeliver_PasteFailureSkipsConfirm(t *testing.T) {
	r := &recorder{pasteErr: errors.New("uinput closed")}
	err := newRecordingDeliverer(r).Deliver(context.Background(), "doc")

	require.Error(t, err)
	assert.NotContains(t, r.events, "confirm")
}

func TestDeliver_CanceledBeforePaste(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newRecordingDeliverer(r).Deliver(ctx, "doc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, r.events, "paste")
}

func TestSleepContext(t *testing.T) {
	start := time.Now()
	require.NoError(t, sleepContext(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}

func TestPasteModifierFor(t *testing.T) {
	assert.Equal(t, modCommand, pasteModifierFor("darwin"))
	for _, goos := range []string{"linux", "windows", "freebsd"} {
		assert.Equal(t, modCtrl, pasteModifierFor(goos), goos)
	}
}
