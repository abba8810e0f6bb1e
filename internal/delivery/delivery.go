// Package delivery types text into whatever input currently has focus:
// clipboard copy, paste, then confirm.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultPasteDelay   = 150 * time.Millisecond
	DefaultConfirmDelay = 50 * time.Millisecond
)

type Clipboard interface {
	WriteAll(text string) error
}

// Keyboard injects key presses into the focused application.
type Keyboard interface {
	Paste() error
	Confirm() error
}

// Deliverer waits PasteDelay between the clipboard write and the paste so
// the clipboard settles, and ConfirmDelay between paste and confirm so the
// target application has consumed the paste.
type Deliverer struct {
	clipboard    Clipboard
	keyboard     Keyboard
	pasteDelay   time.Duration
	confirmDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	log          zerolog.Logger
}

func New(cb Clipboard, kb Keyboard, pasteDelay, confirmDelay time.Duration, log zerolog.Logger) *Deliverer {
	return &Deliverer{
		clipboard:    cb,
		keyboard:     kb,
		pasteDelay:   pasteDelay,
		confirmDelay: confirmDelay,
		sleep:        sleepContext,
		log:          log,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, text string) error {
	if err := d.clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	if err := d.sleep(ctx, d.pasteDelay); err != nil {
		return err
	}
	if err := d.keyboard.Paste(); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	if err := d.sleep(ctx, d.confirmDelay); err != nil {
		return err
	}
	if err := d.keyboard.Confirm(); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	d.log.Debug().Int("bytes", len(text)).Msg("pasted and confirmed")
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
