package hotkey

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Source is a registered global chord.
type Source interface {
	Register() error
	Unregister() error
	// Presses delivers one value per chord press while registered.
	Presses() <-chan struct{}
}

// Listener waits for chord presses on its own goroutine and calls OnPress
// for each. OnPress must not block; it should hand the event to whoever owns
// the application state.
type Listener struct {
	source  Source
	onPress func()
	log     zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewListener(source Source, onPress func(), log zerolog.Logger) *Listener {
	return &Listener{source: source, onPress: onPress, log: log}
}

// Start registers the chord and begins listening until ctx is done or Stop
// is called.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("hotkey listener already started")
	}
	if err := l.source.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.started = true

	go l.loop(ctx, l.done)
	return nil
}

// Stop ends the wait loop and unregisters the chord. Safe to call more than
// once, and before Start.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return nil
	}
	l.started = false
	l.cancel()
	<-l.done
	if err := l.source.Unregister(); err != nil {
		return fmt.Errorf("failed to unregister hotkey: %w", err)
	}
	return nil
}

func (l *Listener) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	presses := l.source.Presses()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-presses:
			if !ok {
				return
			}
			l.log.Debug().Msg("hotkey pressed")
			l.onPress()
		}
	}
}
