package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Audit actions recorded by the mutation and session flows.
const (
	ActionProductAdded   = "Product Added"
	ActionProductUpdated = "Product Updated"
	ActionProductDeleted = "Product Deleted"
	ActionUserAdded      = "User Added"
	ActionUserDeleted    = "User Deleted"
	ActionUserLogin      = "User Login"
	ActionUserLogout     = "User Logout"
)

// AuditLog represents a record stored in audit_logs. A nil UserID marks a
// system-initiated action.
type AuditLog struct {
	ID       int64
	UserID   *int64
	Username string
	Action   string
	Details  string
	At       time.Time
}

// ActorID returns a pointer suitable for AuditLog.UserID; zero means system.
func ActorID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger appends records into audit_logs.
type AuditLogger struct{}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

// Record persists the log entry through db, which may be a pool or an open transaction.
func (l *AuditLogger) Record(ctx context.Context, db Execer, log AuditLog) error {
	if l == nil || db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" {
		return errors.New("audit log requires action")
	}
	if log.At.IsZero() {
		return errors.New("audit log requires timestamp")
	}
	_, err := db.Exec(ctx, `INSERT INTO audit_logs (user_id, action, details, timestamp) VALUES ($1, $2, $3, $4)`, log.UserID, log.Action, log.Details, log.At)
	if err != nil {
		return Storage("shared: record audit", err)
	}
	return nil
}
