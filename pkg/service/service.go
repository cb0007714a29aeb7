// Package service defines the single-entry-point contract every business operation implements.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/tollgate/pkg/apperr"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/result"
)

// Service executes one business operation. Expected failures are returned as
// failed Results; the request context, when present, travels in ctx.
type Service[D, R any] interface {
	Execute(ctx context.Context, dto D) result.Result[R]
}

// Func adapts a function to Service.
type Func[D, R any] func(ctx context.Context, dto D) result.Result[R]

func (f Func[D, R]) Execute(ctx context.Context, dto D) result.Result[R] {
	return f(ctx, dto)
}

// Logged wraps s so every failure is logged with the operation name, duration,
// and request correlation attributes. Client errors log at warn, the rest at error.
func Logged[D, R any](name string, logger *slog.Logger, s Service[D, R]) Service[D, R] {
	return Func[D, R](func(ctx context.Context, dto D) result.Result[R] {
		start := time.Now()
		res := s.Execute(ctx, dto)
		if res.IsSuccess() {
			return res
		}

		err := res.Err()
		attrs := []any{
			"service", name,
			"duration", time.Since(start),
			"error", err,
		}
		if rc, ok := reqctx.From(ctx); ok {
			for _, a := range rc.Attrs() {
				attrs = append(attrs, a)
			}
		}

		if apperr.StatusOf(err) < http.StatusInternalServerError {
			logger.WarnContext(ctx, "service failed", attrs...)
		} else {
			logger.ErrorContext(ctx, "service failed", attrs...)
		}
		return res
	})
}
