package rbac

import (
	"fmt"

	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// HasCapability answers whether p may perform c.
//
// Owner and Manager short-circuit to true before the stored set is consulted, even
// though a per-user set is persisted for them. Every other role is checked strictly
// against its stored set.
func HasCapability(p Principal, c Capability) bool {
	switch p.Role {
	case RoleOwner, RoleManager:
		return true
	}
	return p.Capabilities.Allows(c)
}

// Require returns shared.ErrPermissionDenied when p lacks c.
func Require(p Principal, c Capability) error {
	if HasCapability(p, c) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %q", shared.ErrPermissionDenied, p.Role, c)
}

// CanViewAuditLog reports whether p may read the audit trail.
func CanViewAuditLog(p Principal) bool {
	switch p.Role {
	case RoleOwner, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// NewPrincipal builds a principal from stored user fields. An empty stored
// capability string yields an empty set.
func NewPrincipal(id int64, username, role, encodedCapabilities string) Principal {
	return Principal{
		ID:           id,
		Username:     username,
		Role:         NormalizeRole(role),
		Capabilities: ParseCapabilities(encodedCapabilities),
	}
}
