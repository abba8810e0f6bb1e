package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"

	"wismass.com/chatlog-combiner/internal/chatlog"
	"wismass.com/chatlog-combiner/internal/config"
	"wismass.com/chatlog-combiner/internal/core"
	"wismass.com/chatlog-combiner/internal/delivery"
	"wismass.com/chatlog-combiner/internal/logger"
	"wismass.com/chatlog-combiner/internal/store"
)

const serviceName = "chatlog-combiner"

func main() {
	// macOS only accepts hotkey registration from the main thread.
	mainthread.Init(func() {
		if err := newRootCmd().Execute(); err != nil {
			os.Exit(1)
		}
	})
}

// app carries what every subcommand needs once the root has loaded settings.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "combiner",
		Short:        "Combine chat logs under a template and paste the result into the focused window",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.NewConsole(serviceName, cfg.LogLevel)
			if !cfg.DotEnvLoaded {
				a.log.Debug().Msg("no .env file found, relying on environment variables")
			}
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newCombineCmd(a),
		newDeliverCmd(a),
		newChatsCmd(a),
		newTemplatesCmd(a),
		newDatesCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) openStore() *store.JSONStore {
	return store.NewJSONStore(a.cfg.ConfigPath, a.log)
}

// edit loads the persisted configuration, applies fn through a Workspace and
// saves the result. Nothing is written when fn fails.
func (a *app) edit(fn func(ws *core.Workspace) error) error {
	js := a.openStore()
	ws := core.NewWorkspace(js.Load())
	if err := fn(ws); err != nil {
		return err
	}
	return js.Save(ws.Snapshot())
}

func (a *app) newCombiner() *core.Combiner {
	client := chatlog.New(a.cfg.LogServiceURL,
		chatlog.WithTimeout(a.cfg.FetchTimeout),
		chatlog.WithLogger(a.log),
	)
	return core.NewCombiner(client, a.cfg.FetchConcurrency, a.log)
}

func (a *app) newDeliverer() (*delivery.Deliverer, error) {
	kb, err := delivery.NewSystemKeyboard()
	if err != nil {
		return nil, err
	}
	return delivery.New(delivery.SystemClipboard{}, kb, a.cfg.PasteDelay, a.cfg.ConfirmDelay, a.log), nil
}

// openHistory returns nil when history is disabled.
func (a *app) openHistory() (*store.SQLiteHistory, error) {
	if a.cfg.HistoryDB == "" {
		return nil, nil
	}
	h, err := store.NewSQLiteHistory(a.cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open delivery history %s: %w", a.cfg.HistoryDB, err)
	}
	return h, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an index", s)
	}
	return n, nil
}
