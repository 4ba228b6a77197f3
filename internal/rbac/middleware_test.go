package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, p *Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if p != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *p))
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestRequireAll(t *testing.T) {
	m := Middleware{}
	h := m.RequireAll(CapEdit)(okHandler())

	require.Equal(t, http.StatusUnauthorized, serve(h, nil).Code)

	staff := NewPrincipal(1, "sam", "Staff", "edit:0")
	require.Equal(t, http.StatusForbidden, serve(h, &staff).Code)

	manager := NewPrincipal(2, "max", "Manager", "edit:0")
	require.Equal(t, http.StatusNoContent, serve(h, &manager).Code)
}

func TestRequireAuditViewer(t *testing.T) {
	h := Middleware{}.RequireAuditViewer()(okHandler())

	staff := NewPrincipal(1, "sam", "Staff", DefaultCapabilities(RoleStaff).Encode())
	require.Equal(t, http.StatusForbidden, serve(h, &staff).Code)

	admin := NewPrincipal(2, "ada", "Admin", "")
	require.Equal(t, http.StatusNoContent, serve(h, &admin).Code)
}
