package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

// Authenticate requires a valid access token of a live account and records
// the caller on the request context.
func (s *System) Authenticate(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "authenticate")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				handlers.RespondError(w, r, logger, ErrMissingToken)
				return
			}

			sub, err := s.signer.Verify(raw, AccessToken)
			if err != nil {
				handlers.RespondError(w, r, logger, err)
				return
			}

			account, err := s.accounts.ByID(r.Context(), sub)
			if err != nil {
				handlers.RespondError(w, r, logger, ErrInvalidToken.Wrap(err))
				return
			}

			ctx := r.Context()
			rc, ok := reqctx.From(ctx)
			if !ok {
				rc = reqctx.New(r)
				ctx = reqctx.With(ctx, rc)
			}
			rc.Authentication = &reqctx.Authentication{Subject: sub}
			rc.Account = &reqctx.Account{ID: account.ID, Email: account.Email}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
