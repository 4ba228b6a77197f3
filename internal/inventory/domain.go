package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// DefaultLowStockThreshold is used when no threshold is configured.
const DefaultLowStockThreshold = 20

// Product is a stocked item belonging to a named category.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDraft carries the caller-supplied fields of a product.
type ProductDraft struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Stock       int     `json:"stock" validate:"gte=0,lte=2147483647"`
	Price       float64 `json:"price" validate:"gte=0,lte=9999999999.99"`
}

func (d ProductDraft) normalized() ProductDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

// wholeCents reports whether the price fits the two decimal places storage keeps.
func (d ProductDraft) wholeCents() bool {
	digits := strconv.FormatFloat(d.Price, 'f', -1, 64)
	dot := strings.IndexByte(digits, '.')
	return dot < 0 || len(digits)-dot-1 <= 2
}

func (d ProductDraft) product(id int64, at time.Time) Product {
	return Product{
		ID:          id,
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Stock:       d.Stock,
		Price:       d.Price,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

// User is a registered principal as exposed to callers. The password hash never
// leaves the repository.
type User struct {
	ID           int64              `json:"id"`
	Username     string             `json:"username"`
	Role         rbac.Role          `json:"role"`
	Capabilities rbac.CapabilitySet `json:"-"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewUser is the registration payload.
type NewUser struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required"`
}

// ProductFilter narrows product listings. Query matches name, category or
// description case-insensitively.
type ProductFilter struct {
	Query    string
	Page     int
	PageSize int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

// Clock supplies audit timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
