package rbac

import (
	"log/slog"
	"net/http"

	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a resolved principal.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll ensures the current principal holds every listed capability.
func (m Middleware) RequireAll(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			for _, c := range caps {
				if !HasCapability(p, c) {
					m.deny(w, r, p, string(c))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuditViewer restricts audit trail routes to Owner, Manager and Admin.
func (m Middleware) RequireAuditViewer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			if !CanViewAuditLog(p) {
				m.deny(w, r, p, "audit")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, p Principal, capability string) {
	if m.Logger != nil {
		m.Logger.Warn("rbac denied",
			slog.Int64("user_id", p.ID),
			slog.String("role", p.Role.String()),
			slog.String("capability", capability),
			slog.String("path", r.URL.Path))
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing capability "+capability)
}
