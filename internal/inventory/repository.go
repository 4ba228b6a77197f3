package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventory-ds/inventory-ds/internal/platform/db"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

const usernameConstraint = "users_username_key"

// Repository persists products, users and audit entries in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	audit *shared.AuditLogger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, audit: shared.NewAuditLogger()}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	EnsureCategory(ctx context.Context, name string) (int64, error)
	InsertProduct(ctx context.Context, categoryID int64, draft ProductDraft, at time.Time) (int64, error)
	UpdateProduct(ctx context.Context, id, categoryID int64, draft ProductDraft, at time.Time) (bool, error)
	ProductName(ctx context.Context, id int64) (string, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	InsertUser(ctx context.Context, user User, passwordHash string) (int64, error)
	Username(ctx context.Context, id int64) (string, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
	AppendAudit(ctx context.Context, log shared.AuditLog) error
}

type txRepo struct {
	tx    pgx.Tx
	audit *shared.AuditLogger
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, audit: r.audit})
	})
}

const productColumns = `p.id, p.name, c.name, p.description, p.stock, p.price::float8, p.created_at, p.updated_at`

// GetProduct loads a single product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+`
FROM products p JOIN categories c ON c.id = p.category_id
WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, shared.Storage("inventory: get product", err)
	}
	return p, nil
}

// ListProducts returns one page of products plus the total match count.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error) {
	page, size := shared.NormalizePage(filter.Page, filter.PageSize)
	where := ""
	args := []any{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = ` WHERE p.name ILIKE $1 OR c.name ILIKE $1 OR p.description ILIKE $1`
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, shared.Storage("inventory: count products", err)
	}

	args = append(args, size, shared.Offset(page, size))
	listSQL := fmt.Sprintf(`SELECT %s FROM products p JOIN categories c ON c.id = p.category_id%s
ORDER BY p.id LIMIT $%d OFFSET $%d`, productColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, shared.Storage("inventory: list products", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, shared.Storage("inventory: list products", err)
	}
	return products, total, nil
}

// LowStock returns products whose stock is below threshold, lowest first.
func (r *Repository) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products p JOIN categories c ON c.id = p.category_id
WHERE p.stock < $1
ORDER BY p.stock, p.id`, threshold)
	if err != nil {
		return nil, shared.Storage("inventory: low stock", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, shared.Storage("inventory: low stock", err)
	}
	return products, nil
}

// ListUsers returns every registered user ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, role, permissions, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, shared.Storage("inventory: list users", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var (
			u           User
			role, perms string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role, &perms, &u.CreatedAt); err != nil {
			return nil, shared.Storage("inventory: list users", err)
		}
		u.Role = rbac.NormalizeRole(role)
		u.Capabilities = rbac.ParseCapabilities(perms)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Storage("inventory: list users", err)
	}
	return users, nil
}

// AppendAudit records an entry outside any mutation transaction.
func (r *Repository) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	return r.audit.Record(ctx, r.pool, log)
}

func (t *txRepo) EnsureCategory(ctx context.Context, name string) (int64, error) {
	if _, err := t.tx.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, shared.Storage("inventory: ensure category", err)
	}
	var id int64
	if err := t.tx.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id); err != nil {
		return 0, shared.Storage("inventory: ensure category", err)
	}
	return id, nil
}

func (t *txRepo) InsertProduct(ctx context.Context, categoryID int64, draft ProductDraft, at time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO products (name, category_id, stock, price, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		draft.Name, categoryID, draft.Stock, draft.Price, draft.Description, at).Scan(&id)
	if err != nil {
		return 0, shared.Storage("inventory: insert product", err)
	}
	return id, nil
}

func (t *txRepo) UpdateProduct(ctx context.Context, id, categoryID int64, draft ProductDraft, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE products
SET name = $1, category_id = $2, stock = $3, price = $4, description = $5, updated_at = $6
WHERE id = $7`, draft.Name, categoryID, draft.Stock, draft.Price, draft.Description, at, id)
	if err != nil {
		return false, shared.Storage("inventory: update product", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *txRepo) ProductName(ctx context.Context, id int64) (string, error) {
	var name string
	if err := t.tx.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, id).Scan(&name); err != nil {
		if db.IsNoRows(err) {
			return "", shared.ErrNotFound
		}
		return "", shared.Storage("inventory: product name", err)
	}
	return name, nil
}

func (t *txRepo) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, shared.Storage("inventory: delete product", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *txRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, shared.Storage("inventory: username exists", err)
	}
	return exists, nil
}

func (t *txRepo) InsertUser(ctx context.Context, user User, passwordHash string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO users (username, password_hash, role, permissions, created_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		user.Username, passwordHash, string(user.Role), user.Capabilities.Encode(), user.CreatedAt).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, usernameConstraint) {
			return 0, shared.ErrDuplicateUsername
		}
		return 0, shared.Storage("inventory: insert user", err)
	}
	return id, nil
}

func (t *txRepo) Username(ctx context.Context, id int64) (string, error) {
	var username string
	if err := t.tx.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, id).Scan(&username); err != nil {
		if db.IsNoRows(err) {
			return "", shared.ErrNotFound
		}
		return "", shared.Storage("inventory: username", err)
	}
	return username, nil
}

func (t *txRepo) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, shared.Storage("inventory: delete user", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *txRepo) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, t.tx, log)
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Stock, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
