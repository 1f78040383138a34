package buildhook

import (
	"slices"
	"strings"
)

// Built-in roles that are always allowed
const (
	RoleAdministrator = "administrator"
	RoleSuperAdmin    = "super_admin"
)

// Roles lists the role names allowed to manage settings and to trigger builds
type Roles struct {
	Settings []string `json:"settings"`
	Trigger  []string `json:"trigger"`
}

// Bypass reports whether role skips the role lists entirely
func Bypass(role string) bool {
	return role == RoleAdministrator || role == RoleSuperAdmin
}

// CanManageSettings reports whether role may view and save settings
func (r Roles) CanManageSettings(role string) bool {
	return Bypass(role) || (role != "" && slices.Contains(r.Settings, role))
}

// CanTrigger reports whether role may trigger builds
func (r Roles) CanTrigger(role string) bool {
	return Bypass(role) || (role != "" && slices.Contains(r.Trigger, role))
}

// CanView reports whether role may open the status page; settings managers
// can always trigger from it.
func (r Roles) CanView(role string) bool {
	return r.CanTrigger(role) || r.CanManageSettings(role)
}

// normalizeRoles trims, drops blanks and duplicates, and puts administrator first
func normalizeRoles(in []string) []string {
	out := []string{RoleAdministrator}
	for _, role := range in {
		role = strings.TrimSpace(role)
		if role == "" || slices.Contains(out, role) {
			continue
		}
		out = append(out, role)
	}
	return out
}
