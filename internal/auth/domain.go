package auth

import (
	"time"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
)

// User represents an account able to log in.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	Permissions  string
	CreatedAt    time.Time
}

// Principal converts the stored account into the acting principal.
func (u *User) Principal() rbac.Principal {
	return rbac.NewPrincipal(u.ID, u.Username, u.Role, u.Permissions)
}
