package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	if err := h.validator.Struct(form); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields = append(fields, strings.ToLower(fieldErr.Field()))
			}
		}
		httpx.RespondError(w, shared.Validationf("invalid %s", strings.Join(fields, ", ")))
		return
	}

	sess, p, err := h.service.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("username", form.Username))
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.sessionManager.WriteCookie(w, sess)
	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:     sess.ID,
		ExpiresIn: int(h.sessionManager.TTL().Seconds()),
		UserID:    p.ID,
		Username:  p.Username,
		Role:      p.Role.String(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessionManager.TokenFromRequest(r)
	if sess, ok := shared.SessionFromContext(r.Context()); ok {
		token = sess.ID
	}
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
			h.logger.Error("logout failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	h.sessionManager.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
