package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Dispatcher is the single consumer of asynchronous delivery triggers such as
// the global hotkey. Producers never touch the configuration; they only call
// Trigger.
type Dispatcher struct {
	svc      *Service
	triggers chan struct{}
	log      zerolog.Logger
}

func NewDispatcher(svc *Service, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		svc:      svc,
		triggers: make(chan struct{}, 1),
		log:      log,
	}
}

// Trigger queues one run without blocking. It returns false when a run is
// already queued.
func (d *Dispatcher) Trigger() bool {
	select {
	case d.triggers <- struct{}{}:
		return true
	default:
		d.log.Warn().Msg("delivery already queued, trigger dropped")
		return false
	}
}

// Run processes triggers until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.triggers:
			if _, err := d.svc.CombineAndDeliver(ctx); err != nil {
				if errors.Is(err, ErrBusy) {
					d.log.Warn().Msg("delivery already running, trigger ignored")
					continue
				}
				d.log.Error().Err(err).Msg("triggered delivery failed")
			}
		}
	}
}
