// Package logging builds the root slog logger. Records carry the request
// correlation attributes found on their context, and error records can be
// forwarded to a chat webhook.
package logging

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

// New builds a logger writing to w. When cfg.WebhookURL is set, error records
// are also forwarded to the webhook; the returned Webhook must be closed on
// shutdown to drain its queue. It is nil otherwise.
func New(cfg *Config, w io.Writer) (*slog.Logger, *Webhook) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	var hook *Webhook
	if cfg.WebhookURL != "" {
		hook = NewWebhook(cfg.WebhookURL, &http.Client{Timeout: cfg.WebhookTimeoutDuration()}, DefaultQueueSize)
		h = Fanout(h, hook.Handler(slog.LevelError))
	}

	return slog.New(ContextHandler(h)), hook
}

type contextHandler struct {
	slog.Handler
}

// ContextHandler decorates next with the log_id and account_id of the
// request context carried by each record's context.
func ContextHandler(next slog.Handler) slog.Handler {
	return &contextHandler{Handler: next}
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if rc, ok := reqctx.From(ctx); ok {
		r.AddAttrs(rc.Attrs()...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

type fanout []slog.Handler

// Fanout sends each record to every handler that accepts its level.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanout(handlers)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
