// Package chatlog fetches chat history text from the local chat-log service.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	// ErrorMarker prefixes every inline failure text.
	ErrorMarker = "[ERROR]"
	// EmptyPlaceholder stands in for a successful but empty response.
	EmptyPlaceholder = "[空]"

	userAgent      = "ChatLogCombiner/1.0"
	defaultTimeout = 8 * time.Second
)

// Outcome distinguishes the three kinds of text Fetch can return.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Result is the text to embed in the document plus how it was obtained.
type Result struct {
	Text    string
	Outcome Outcome
}

// Client calls GET <url>?time=<from>~<to>&talker=<name>.
type Client struct {
	url  string
	http *resty.Client
	log  zerolog.Logger
}

// Option configures a Client during construction in New.
type Option func(*Client)

// WithTimeout bounds each fetch. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger used for fetch failures and resty's own
// diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
		c.http.SetLogger(restyLogger{log: log})
	}
}

// WithDebug logs every request and response.
func WithDebug(enabled bool) Option {
	return func(c *Client) {
		c.http.SetDebug(enabled)
	}
}

func New(serviceURL string, opts ...Option) *Client {
	c := &Client{
		url: serviceURL,
		http: resty.New().
			SetHeader("User-Agent", userAgent).
			SetTimeout(defaultTimeout),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch never returns an error: transport failures, timeouts and non-2xx
// statuses come back as text starting with ErrorMarker.
func (c *Client) Fetch(ctx context.Context, chatName, dateFrom, dateTo string) Result {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("time", dateFrom+"~"+dateTo).
		SetQueryParam("talker", chatName).
		Get(c.url)
	if err != nil {
		c.log.Warn().Err(err).Str("chat", chatName).Msg("chat log fetch failed")
		return Result{Text: ErrorMarker + " " + describe(err), Outcome: OutcomeError}
	}
	if !resp.IsSuccess() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("chat", chatName).Msg("chat log service returned non-success status")
		return Result{
			Text:    fmt.Sprintf("%s HTTP %d: %s", ErrorMarker, resp.StatusCode(), strings.TrimSpace(firstLine(resp.String()))),
			Outcome: OutcomeError,
		}
	}

	body := strings.TrimSpace(resp.String())
	if body == "" {
		return Result{Text: EmptyPlaceholder, Outcome: OutcomeEmpty}
	}
	return Result{Text: body, Outcome: OutcomeOK}
}

func describe(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "canceled: " + err.Error()
	default:
		return err.Error()
	}
}

// maxDiagnostic bounds how much of an error body lands in the document.
const maxDiagnostic = 200

// firstLine returns the first line of s, cut to at most maxDiagnostic bytes
// on a rune boundary.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) <= maxDiagnostic {
		return s
	}
	cut := maxDiagnostic
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// restyLogger routes resty's printf-style logging into zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}
