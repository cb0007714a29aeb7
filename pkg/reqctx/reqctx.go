// Package reqctx carries per-request correlation and caller identity on a context.Context.
package reqctx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Authentication is the verified token subject of the caller.
type Authentication struct {
	Subject string
}

// Account identifies the caller once the token subject has been resolved.
type Account struct {
	ID    string
	Email string
}

// Context is created once per inbound request and never persisted.
type Context struct {
	LogID          uuid.UUID
	Timestamp      time.Time
	IP             string
	UserAgent      string
	Authentication *Authentication
	Account        *Account
}

type contextKey struct{}

// New builds a Context for r.
func New(r *http.Request) *Context {
	return &Context{
		LogID:     uuid.New(),
		Timestamp: time.Now().UTC(),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// With returns ctx carrying rc.
func With(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// From returns the Context stored in ctx, if any.
func From(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok && rc != nil
}

// AccountID returns the caller's account id, or "" for anonymous requests.
func AccountID(ctx context.Context) string {
	if rc, ok := From(ctx); ok && rc.Account != nil {
		return rc.Account.ID
	}
	return ""
}

// Attrs returns the log attributes identifying the request.
func (c *Context) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("log_id", c.LogID.String())}
	if c.Account != nil {
		attrs = append(attrs, slog.String("account_id", c.Account.ID))
	}
	return attrs
}

// Middleware attaches a fresh Context to every request and echoes its log id.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := New(r)
			w.Header().Set("X-Request-Id", rc.LogID.String())
			next.ServeHTTP(w, r.WithContext(With(r.Context(), rc)))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
