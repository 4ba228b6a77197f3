package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// Repository menyediakan akses baca ke audit_logs.
type Repository interface {
	TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error)
	TimelineAll(ctx context.Context, arg WindowParams) ([]TimelineRow, error)
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Service mengoordinasikan pengambilan data audit.
type Service struct {
	repo Repository
}

// NewService membuat service audit timeline baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil data audit dengan paging, terbaru lebih dulu.
func (s *Service) Timeline(ctx context.Context, actor rbac.Principal, filters TimelineFilters) (Result, error) {
	if err := s.authorize(actor); err != nil {
		return Result{}, err
	}
	page, pageSize := shared.NormalizePage(filters.Page, filters.PageSize)
	rows, err := s.repo.TimelineWindow(ctx, WindowParams{
		Query:  strings.TrimSpace(filters.Query),
		From:   filters.From,
		To:     filters.To,
		Offset: shared.Offset(page, pageSize),
		Limit:  pageSize + 1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("audit: timeline: %w", err)
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: labelled(rows), Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, actor rbac.Principal, filters TimelineFilters) ([]TimelineRow, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.TimelineAll(ctx, WindowParams{
		Query: strings.TrimSpace(filters.Query),
		From:  filters.From,
		To:    filters.To,
	})
	if err != nil {
		return nil, fmt.Errorf("audit: export: %w", err)
	}
	return labelled(rows), nil
}

func (s *Service) authorize(actor rbac.Principal) error {
	if !rbac.CanViewAuditLog(actor) {
		return fmt.Errorf("%w: %s may not view the audit log", shared.ErrPermissionDenied, actor.Role)
	}
	return nil
}

func labelled(rows []TimelineRow) []TimelineRow {
	out := make([]TimelineRow, 0, len(rows))
	for _, row := range rows {
		if row.UserID == nil || row.Username == "" {
			row.Username = SystemUsername
		}
		out = append(out, row)
	}
	return out
}
