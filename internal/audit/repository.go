package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// PGRepository membaca audit_logs dari PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TimelineWindow returns at most arg.Limit rows starting at arg.Offset.
func (r *PGRepository) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	query, args := timelineSQL(arg)
	args = append(args, arg.Limit, arg.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.query(ctx, "audit: timeline window", query, args)
}

// TimelineAll returns every matching row.
func (r *PGRepository) TimelineAll(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	query, args := timelineSQL(arg)
	return r.query(ctx, "audit: timeline all", query, args)
}

func timelineSQL(arg WindowParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if arg.Query != "" {
		args = append(args, "%"+arg.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(u.username ILIKE $%d OR a.action ILIKE $%d OR a.details ILIKE $%d)", n, n, n))
	}
	if !arg.From.IsZero() {
		args = append(args, arg.From)
		conds = append(conds, fmt.Sprintf("a.timestamp >= $%d", len(args)))
	}
	if !arg.To.IsZero() {
		args = append(args, arg.To)
		conds = append(conds, fmt.Sprintf("a.timestamp < $%d", len(args)))
	}
	var b strings.Builder
	b.WriteString(`SELECT a.id, a.timestamp, a.user_id, COALESCE(u.username, ''), a.action, a.details
FROM audit_logs a LEFT JOIN users u ON u.id = a.user_id`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY a.timestamp DESC, a.id DESC")
	return b.String(), args
}

func (r *PGRepository) query(ctx context.Context, op, sql string, args []any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, shared.Storage(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var t TimelineRow
		err := row.Scan(&t.ID, &t.At, &t.UserID, &t.Username, &t.Action, &t.Details)
		return t, err
	})
	if err != nil {
		return nil, shared.Storage(op, err)
	}
	return out, nil
}
