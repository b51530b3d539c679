package domain

import (
	"fmt"
	"strings"
)

// Role is supplied by the external authentication service.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleCommon     Role = "COMMON"
)

// ParseRole maps a token role claim to a Role. "COMUM" is accepted as an alias of COMMON.
func ParseRole(raw string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleTechnician):
		return RoleTechnician, nil
	case string(RoleCommon), "COMUM", "":
		return RoleCommon, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Caller is the identity behind every operation.
type Caller struct {
	ID   string
	Name string
	Role Role
}

// IsAdmin reports administrative rights.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsStaff reports whether the caller works the queue (technicians and administrators).
func (c Caller) IsStaff() bool {
	switch c.Role {
	case RoleAdmin, RoleTechnician:
		return true
	case RoleCommon:
		return false
	}
	return false
}

// DisplayName falls back to the id when the directory supplied no name.
func (c Caller) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return c.ID
	}
	return c.Name
}
