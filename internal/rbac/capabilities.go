package rbac

import "strings"

// CapabilitySet maps capability names to grants. Absent keys are denied.
type CapabilitySet map[Capability]bool

// Allows reports the stored grant for c.
func (s CapabilitySet) Allows(c Capability) bool {
	if s == nil {
		return false
	}
	return s[c]
}

// Encode serializes recognized capabilities as "name:flag" pairs in canonical order.
func (s CapabilitySet) Encode() string {
	parts := make([]string, 0, len(allCapabilities))
	for _, c := range allCapabilities {
		flag := "0"
		if s.Allows(c) {
			flag = "1"
		}
		parts = append(parts, string(c)+":"+flag)
	}
	return strings.Join(parts, ",")
}

// ParseCapabilities decodes the stored "name:flag,name:flag" representation.
// A flag of "1" grants, any other value denies; pairs with the wrong arity are skipped.
func ParseCapabilities(raw string) CapabilitySet {
	set := make(CapabilitySet)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return set
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.Split(pair, ":")
		if len(kv) != 2 {
			continue
		}
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		set[Capability(name)] = strings.TrimSpace(kv[1]) == "1"
	}
	return set
}

var roleDefaults = map[Role][]Capability{
	RoleOwner:   allCapabilities,
	RoleManager: allCapabilities,
	RoleAdmin:   {CapAdd, CapEdit, CapDelete, CapAddUser, CapLowStock, CapView, CapImport, CapExport},
	RoleStaff:   {CapAdd, CapLowStock, CapView},
}

// DefaultCapabilities returns the fixed capability table for role. Every recognized
// capability is present in the result; unknown roles map to all-false.
func DefaultCapabilities(role Role) CapabilitySet {
	set := make(CapabilitySet, len(allCapabilities))
	for _, c := range allCapabilities {
		set[c] = false
	}
	for _, c := range roleDefaults[role] {
		set[c] = true
	}
	return set
}
