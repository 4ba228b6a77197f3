package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
)

// PermissionsHandler exposes the capability catalogue and role defaults.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(CapView))
		r.Get("/", h.listPermissions)
		r.Get("/me", h.me)
	})
}

type roleDefaultsResponse struct {
	Role         string          `json:"role"`
	Capabilities map[string]bool `json:"capabilities"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	roles := Roles()
	out := make([]roleDefaultsResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleDefaultsResponse{Role: role.String(), Capabilities: toJSON(DefaultCapabilities(role))})
	}
	names := make([]string, 0, len(allCapabilities))
	for _, c := range allCapabilities {
		names = append(names, string(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"capabilities": names, "roles": out})
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	effective := make(map[string]bool, len(allCapabilities))
	for _, c := range allCapabilities {
		effective[string(c)] = HasCapability(p, c)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":           p.ID,
		"username":     p.Username,
		"role":         p.Role.String(),
		"stored":       toJSON(p.Capabilities),
		"effective":    effective,
		"audit_viewer": CanViewAuditLog(p),
	})
}

func toJSON(set CapabilitySet) map[string]bool {
	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[string(k)] = v
	}
	return out
}
