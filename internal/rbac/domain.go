package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role represents a coarse classification that determines default capabilities.
type Role string

const (
	// RoleUnknown is the zero role; it grants nothing.
	RoleUnknown Role = ""
	// RoleOwner has blanket access.
	RoleOwner Role = "Owner"
	// RoleManager has blanket access.
	RoleManager Role = "Manager"
	// RoleAdmin manages stock and staff accounts.
	RoleAdmin Role = "Admin"
	// RoleStaff records stock only.
	RoleStaff Role = "Staff"
)

// Capability is a named permission bit.
type Capability string

const (
	CapAdd        Capability = "add"
	CapEdit       Capability = "edit"
	CapDelete     Capability = "delete"
	CapAddUser    Capability = "addUser"
	CapDeleteUser Capability = "deleteUser"
	CapLowStock   Capability = "lowStock"
	CapView       Capability = "view"
	CapImport     Capability = "import"
	CapExport     Capability = "export"
)

var allCapabilities = []Capability{
	CapAdd,
	CapEdit,
	CapDelete,
	CapAddUser,
	CapDeleteUser,
	CapLowStock,
	CapView,
	CapImport,
	CapExport,
}

// AllCapabilities lists recognized capabilities in canonical order.
func AllCapabilities() []Capability {
	out := make([]Capability, len(allCapabilities))
	copy(out, allCapabilities)
	return out
}

// Roles lists the recognized roles.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleAdmin, RoleStaff}
}

var titleCaser = cases.Title(language.Und)

// ParseRole normalizes raw into its canonical capitalization. Matching is
// case-insensitive; ok is false for anything outside the closed set.
func ParseRole(raw string) (Role, bool) {
	normalized := Role(titleCaser.String(strings.ToLower(strings.TrimSpace(raw))))
	switch normalized {
	case RoleOwner, RoleManager, RoleAdmin, RoleStaff:
		return normalized, true
	default:
		return RoleUnknown, false
	}
}

// NormalizeRole is the total form of ParseRole.
func NormalizeRole(raw string) Role {
	role, _ := ParseRole(raw)
	return role
}

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == RoleUnknown {
		return "Unknown"
	}
	return string(r)
}

// Principal describes the authenticated actor on whose behalf an operation runs.
// The zero Principal is the system actor.
type Principal struct {
	ID           int64
	Username     string
	Role         Role
	Capabilities CapabilitySet
}

// System returns the principal used for system-initiated actions.
func System() Principal {
	return Principal{Username: "System"}
}
