package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
)

// Handler wires HTTP endpoints for products and users.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountProductRoutes registers product routes.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuthenticated())
	r.With(h.rbac.RequireAll(rbac.CapView)).Get("/", h.listProducts)
	r.With(h.rbac.RequireAll(rbac.CapAdd)).Post("/", h.addProduct)
	r.With(h.rbac.RequireAll(rbac.CapLowStock)).Get("/low-stock", h.lowStock)
	r.With(h.rbac.RequireAll(rbac.CapView)).Get("/{id}", h.getProduct)
	r.With(h.rbac.RequireAll(rbac.CapEdit)).Put("/{id}", h.updateProduct)
	r.With(h.rbac.RequireAll(rbac.CapDelete)).Delete("/{id}", h.deleteProduct)
}

// MountUserRoutes registers user management routes.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuthenticated())
	r.With(h.rbac.RequireAll(rbac.CapView)).Get("/", h.listUsers)
	r.With(h.rbac.RequireAll(rbac.CapAddUser)).Post("/", h.addUser)
	r.With(h.rbac.RequireAll(rbac.CapDeleteUser)).Delete("/{id}", h.deleteUser)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	filter := ProductFilter{Query: q.Get("q"), Page: atoi(q.Get("page")), PageSize: atoi(q.Get("page_size"))}
	page, err := h.service.ListProducts(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	product, err := h.service.GetProduct(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var draft ProductDraft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	product, err := h.service.AddProduct(r.Context(), actor, draft)
	if err != nil {
		h.fail(w, "add product", err)
		return
	}
	h.logger.Info("product added", slog.Int64("product_id", product.ID), slog.Int64("user_id", actor.ID))
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var draft ProductDraft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	ok, err := h.service.UpdateProduct(r.Context(), actor, id, draft)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	ok, err := h.service.DeleteProduct(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "delete product", err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	products, err := h.service.LowStock(r.Context(), actor, atoi(r.URL.Query().Get("threshold")))
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	var input NewUser
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	user, err := h.service.AddUser(r.Context(), actor, input)
	if err != nil {
		h.fail(w, "add user", err)
		return
	}
	h.logger.Info("user added", slog.Int64("new_user_id", user.ID), slog.Int64("user_id", actor.ID))
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	ok, err := h.service.DeleteUser(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "delete user", err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func atoi(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}
