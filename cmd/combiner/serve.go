package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wismass.com/chatlog-combiner/internal/api"
	"wismass.com/chatlog-combiner/internal/core"
	"wismass.com/chatlog-combiner/internal/hotkey"
	"wismass.com/chatlog-combiner/internal/hotkey/syshotkey"
	"wismass.com/chatlog-combiner/internal/logger"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen for the hotkey and serve the control API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	log := logger.New(serviceName, a.cfg.LogLevel)
	a.log = log

	js := a.openStore()
	ws := core.NewWorkspace(js.Load())

	deliverer, err := a.newDeliverer()
	if err != nil {
		return err
	}

	history, err := a.openHistory()
	if err != nil {
		return err
	}
	var (
		recorder core.HistoryRecorder
		lister   api.HistoryLister
	)
	if history != nil {
		defer history.Close()
		recorder = history
		lister = history
	}

	svc := core.NewService(ws, js, a.newCombiner(), deliverer, recorder, log)
	dispatcher := core.NewDispatcher(svc, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		dispatcher.Run(ctx)
	}()

	chord, err := hotkey.ParseChord(a.cfg.Hotkey)
	if err != nil {
		return err
	}
	src, err := syshotkey.New(chord)
	if err != nil {
		return err
	}
	listener := hotkey.NewListener(src, func() { dispatcher.Trigger() }, log)
	if err := listener.Start(ctx); err != nil {
		return err
	}
	defer listener.Stop()
	log.Info().Str("hotkey", chord.String()).Msg("hotkey registered")

	var srv *http.Server
	if a.cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:         a.cfg.HTTPAddr,
			Handler:      api.NewRouter(api.NewAPIHandler(svc, lister, log), log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("control API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", srv.Addr).Msg("control API stopped")
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("control API forced to shut down")
		}
	}
	<-dispatched

	if err := svc.Save(); err != nil {
		log.Error().Err(err).Msg("final save failed")
		return err
	}
	log.Info().Msg("exited gracefully")
	return nil
}
