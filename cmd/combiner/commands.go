package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wismass.com/chatlog-combiner/internal/core"
	"wismass.com/chatlog-combiner/internal/store"
)

func newCombineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Print the combined document without saving or delivering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.openStore().Load()
			doc, err := a.newCombiner().Combine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
			return nil
		},
	}
}

func newDeliverCmd(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Combine, then paste and confirm into the window focused after --wait",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			var recorder core.HistoryRecorder
			if history != nil {
				defer history.Close()
				recorder = history
			}
			svc := core.NewService(ws, js, a.newCombiner(), deliverer, recorder, a.log)

			if wait > 0 {
				a.log.Info().Dur("wait", wait).Msg("focus the target window")
				select {
				case <-time.After(wait):
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
			_, err = svc.CombineAndDeliver(cmd.Context())
			return err
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 3*time.Second, "delay before delivering, to focus the target window")
	return cmd
}

func newChatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List and edit chats",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chats by index",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printChats(cmd.OutOrStdout(), a.openStore().Load())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Append a chat; no template includes it yet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.edit(func(ws *core.Workspace) error {
					fmt.Fprintln(cmd.OutOrStdout(), ws.AddChat(args[0]))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm INDEX",
			Short: "Remove a chat and its flag from every template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				return a.edit(func(ws *core.Workspace) error {
					return ws.RemoveChat(i)
				})
			},
		},
		&cobra.Command{
			Use:   "rename INDEX NAME",
			Short: "Rename a chat",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				return a.edit(func(ws *core.Workspace) error {
					return ws.RenameChat(i, args[1])
				})
			},
		},
	)
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List, select and edit templates",
	}

	var content string
	add := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Append a template that includes no chats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return a.edit(func(ws *core.Workspace) error {
				fmt.Fprintln(cmd.OutOrStdout(), ws.AddTemplate(name, content))
				return nil
			})
		},
	}
	add.Flags().StringVar(&content, "content", "", "template body")

	var (
		editName    string
		editContent string
	)
	edit := &cobra.Command{
		Use:   "edit INDEX",
		Short: "Change a template's name or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return a.edit(func(ws *core.Workspace) error {
				cfg := ws.Snapshot()
				if i < 0 || i >= len(cfg.Templates) {
					return fmt.Errorf("edit template %d: %w", i, core.ErrIndexOutOfRange)
				}
				name, body := cfg.Templates[i].Name, cfg.Templates[i].Content
				if cmd.Flags().Changed("name") {
					name = editName
				}
				if cmd.Flags().Changed("content") {
					body = editContent
				}
				return ws.UpdateTemplate(i, name, body)
			})
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "new name")
	edit.Flags().StringVar(&editContent, "content", "", "new body")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List templates; * marks the selected one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printTemplates(cmd.OutOrStdout(), a.openStore().Load())
				return nil
			},
		},
		add,
		edit,
		&cobra.Command{
			Use:   "rm INDEX",
			Short: "Remove a template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				return a.edit(func(ws *core.Workspace) error {
					return ws.RemoveTemplate(i)
				})
			},
		},
		&cobra.Command{
			Use:   "select INDEX",
			Short: "Make a template the active one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				return a.edit(func(ws *core.Workspace) error {
					return ws.SelectTemplate(i)
				})
			},
		},
		newEnableCmd(a, "enable", true),
		newEnableCmd(a, "disable", false),
	)
	return cmd
}

func newEnableCmd(a *app, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " TEMPLATE CHAT",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a chat in a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			chat, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return a.edit(func(ws *core.Workspace) error {
				return ws.SetChatEnabled(tpl, chat, enabled)
			})
		},
	}
}

func newDatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Show or set the date range shared by every chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.openStore().Load()
			fmt.Fprintf(cmd.OutOrStdout(), "%s~%s\n", cfg.GlobalDateFrom, cfg.GlobalDateTo)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set FROM TO",
		Short: "Set the range, both ends YYYY-MM-DD and inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(ws *core.Workspace) error {
				return ws.SetDateRange(args[0], args[1])
			})
		},
	})
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent deliveries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			if h == nil {
				return fmt.Errorf("delivery history is disabled (COMBINER_HISTORY_DB is empty)")
			}
			defer h.Close()

			deliveries, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), deliveries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of deliveries")
	return cmd
}

func printChats(w io.Writer, cfg *store.AppConfig) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range cfg.Chats {
		fmt.Fprintf(tw, "%d\t%s\t%s~%s\n", i, c.Name, cfg.GlobalDateFrom, cfg.GlobalDateTo)
	}
	tw.Flush()
}

func printTemplates(w io.Writer, cfg *store.AppConfig) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range cfg.Templates {
		mark := " "
		if i == cfg.CurrentTemplate {
			mark = "*"
		}
		var chats []string
		for j, on := range t.EnabledChats {
			if on && j < len(cfg.Chats) {
				chats = append(chats, cfg.Chats[j].Name)
			}
		}
		fmt.Fprintf(tw, "%s %d\t%s\t%s\n", mark, i, t.Name, strings.Join(chats, ", "))
	}
	tw.Flush()
}

func printHistory(w io.Writer, deliveries []store.Delivery) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range deliveries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d errors\n",
			d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.Template, strings.Join(d.Chats, ", "), d.Errors)
	}
	tw.Flush()
}
