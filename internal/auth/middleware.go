package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// SessionMiddleware attaches the session and principal named by the request token.
// Requests without a valid session continue anonymously.
func SessionMiddleware(logger *slog.Logger, service *Service, sessions *shared.SessionManager) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessions.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, p, err := service.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrSessionNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("resolve session", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), sess)
			ctx = rbac.ContextWithPrincipal(ctx, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
