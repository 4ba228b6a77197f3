package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/inventory-ds/inventory-ds/internal/shared"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrDuplicateUsername, http.StatusConflict},
		{shared.Validationf("stock must be >= 0"), http.StatusBadRequest},
		{shared.ErrPermissionDenied, http.StatusForbidden},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrSessionNotFound, http.StatusUnauthorized},
		{shared.Storage("insert", errors.New("dial tcp 10.0.0.5:5432")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())
		require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesStorageCause(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.Storage("insert", errors.New("dial tcp 10.0.0.5:5432")))
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, http.StatusServiceUnavailable, body.Status)
	require.NotContains(t, body.Detail, "10.0.0.5")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, "x", target.Name)
}

func TestIDParam(t *testing.T) {
	var got int64
	var gotErr error
	r := chi.NewRouter()
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = IDParam(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/42", nil))
	require.NoError(t, gotErr)
	require.Equal(t, int64(42), got)

	for _, raw := range []string{"0", "-3", "abc"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+raw, nil))
		require.ErrorIs(t, gotErr, shared.ErrValidation, raw)
	}
}
