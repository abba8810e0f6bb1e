package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wismass.com/chatlog-combiner/internal/chatlog"
	"wismass.com/chatlog-combiner/internal/metrics"
	"wismass.com/chatlog-combiner/internal/store"
)

const separator = "========"

// Fetcher retrieves one chat's log for a date range. Failures are reported
// inside the Result, never as an error.
type Fetcher interface {
	Fetch(ctx context.Context, chatName, dateFrom, dateTo string) chatlog.Result
}

// Document is the assembled text plus what went into it.
type Document struct {
	Text     string
	Template string
	Chats    []string
	Errors   int
}

type Combiner struct {
	fetcher     Fetcher
	concurrency int
	log         zerolog.Logger
}

func NewCombiner(fetcher Fetcher, concurrency int, log zerolog.Logger) *Combiner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Combiner{fetcher: fetcher, concurrency: concurrency, log: log}
}

// Combine renders the active template followed by one block per enabled
// chat, in chat-list order. Fetches run concurrently and are all joined
// before assembly. The only error is an unusable CurrentTemplate.
func (c *Combiner) Combine(ctx context.Context, cfg *store.AppConfig) (*Document, error) {
	tpl, err := cfg.ActiveTemplate()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	var included []store.Chat
	for i, chat := range cfg.Chats {
		if i < len(tpl.EnabledChats) && tpl.EnabledChats[i] {
			included = append(included, chat)
		}
	}

	results := make([]chatlog.Result, len(included))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, chat := range included {
		g.Go(func() error {
			results[i] = c.fetcher.Fetch(gctx, chat.Name, cfg.GlobalDateFrom, cfg.GlobalDateTo)
			metrics.ObserveFetch(string(results[i].Outcome))
			return nil
		})
	}
	_ = g.Wait()

	doc := &Document{Template: tpl.Name, Chats: make([]string, 0, len(included))}
	parts := []string{strings.TrimSpace(tpl.Name), "", strings.TrimSpace(tpl.Content)}
	for i, chat := range included {
		if results[i].Outcome == chatlog.OutcomeError {
			doc.Errors++
		}
		doc.Chats = append(doc.Chats, chat.Name)
		parts = append(parts,
			"",
			separator,
			"【群聊："+chat.Name+"】",
			separator,
			results[i].Text,
		)
	}
	doc.Text = strings.Join(parts, "\n")

	elapsed := time.Since(start)
	metrics.ObserveCombine(elapsed)
	c.log.Debug().
		Str("template", tpl.Name).
		Int("chats", len(included)).
		Int("errors", doc.Errors).
		Dur("elapsed", elapsed).
		Msg("document combined")
	return doc, nil
}
