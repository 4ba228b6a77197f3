package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inventory-ds/inventory-ds/internal/audit"
	"github.com/inventory-ds/inventory-ds/internal/platform/httpx"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

const maxDateRange = 90 * 24 * time.Hour

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, actor rbac.Principal, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, actor rbac.Principal, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	result, err := h.service.Timeline(r.Context(), actor, filters)
	if err != nil {
		h.handleError(w, "load audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	rows, err := h.service.Export(r.Context(), actor, filters)
	if err != nil {
		h.handleError(w, "export audit timeline", err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-log.json\"")
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// parseFilters reads q, from, to (YYYY-MM-DD, inclusive), page and page_size.
func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	filters := audit.TimelineFilters{Query: strings.TrimSpace(q.Get("q"))}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filters, shared.Validationf("from must be YYYY-MM-DD")
		}
		filters.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filters, shared.Validationf("to must be YYYY-MM-DD")
		}
		filters.To = to.Add(24 * time.Hour)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if !filters.From.Before(filters.To) {
			return filters, shared.Validationf("from must not be after to")
		}
		if filters.To.Sub(filters.From) > maxDateRange {
			return filters, shared.Validationf("date range exceeds 90 days")
		}
	}
	for name, dst := range map[string]*int{"page": &filters.Page, "page_size": &filters.PageSize} {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filters, shared.Validationf("%s must be a positive integer", name)
		}
		if name == "page" && n > shared.MaxPage {
			return filters, shared.Validationf("page must not exceed %d", shared.MaxPage)
		}
		*dst = n
	}
	return filters, nil
}

func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.RespondError(w, err)
}
