package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"wismass.com/chatlog-combiner/internal/metrics"
	"wismass.com/chatlog-combiner/internal/store"
)

// ErrBusy is returned when a combine-and-deliver run is already in progress.
var ErrBusy = errors.New("a delivery is already running")

type ConfigSaver interface {
	Save(cfg *store.AppConfig) error
}

// Deliverer puts text into whatever input currently has focus.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, d *store.Delivery) error
}

type Service struct {
	workspace *Workspace
	saver     ConfigSaver
	combiner  *Combiner
	deliverer Deliverer
	history   HistoryRecorder // nil disables history
	log       zerolog.Logger

	running sync.Mutex
}

func NewService(ws *Workspace, saver ConfigSaver, combiner *Combiner, deliverer Deliverer, history HistoryRecorder, log zerolog.Logger) *Service {
	return &Service{
		workspace: ws,
		saver:     saver,
		combiner:  combiner,
		deliverer: deliverer,
		history:   history,
		log:       log,
	}
}

func (s *Service) Workspace() *Workspace {
	return s.workspace
}

// Save flushes the current configuration to durable storage.
func (s *Service) Save() error {
	if err := s.saver.Save(s.workspace.Snapshot()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// Preview combines the current configuration without saving or delivering.
func (s *Service) Preview(ctx context.Context) (*Document, error) {
	return s.combiner.Combine(ctx, s.workspace.Snapshot())
}

// CombineAndDeliver saves the configuration, combines it and delivers the
// result. Overlapping calls are rejected with ErrBusy so two runs never
// interleave clipboard writes.
func (s *Service) CombineAndDeliver(ctx context.Context) (*Document, error) {
	if !s.running.TryLock() {
		metrics.ObserveDelivery("busy")
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	cfg := s.workspace.Snapshot()
	if err := s.saver.Save(cfg); err != nil {
		metrics.ObserveDelivery("error")
		return nil, fmt.Errorf("failed to save configuration before delivery: %w", err)
	}

	doc, err := s.combiner.Combine(ctx, cfg)
	if err != nil {
		metrics.ObserveDelivery("error")
		return nil, fmt.Errorf("failed to combine document: %w", err)
	}

	if err := s.deliverer.Deliver(ctx, doc.Text); err != nil {
		metrics.ObserveDelivery("error")
		return doc, fmt.Errorf("failed to deliver document: %w", err)
	}
	metrics.ObserveDelivery("ok")
	s.log.Info().
		Str("template", doc.Template).
		Int("chats", len(doc.Chats)).
		Int("errors", doc.Errors).
		Int("bytes", len(doc.Text)).
		Msg("document delivered")

	if s.history != nil {
		rec := &store.Delivery{Template: doc.Template, Chats: doc.Chats, Errors: doc.Errors, Document: doc.Text}
		if err := s.history.Record(ctx, rec); err != nil {
			s.log.Warn().Err(err).Msg("failed to record delivery history")
		}
	}
	return doc, nil
}
