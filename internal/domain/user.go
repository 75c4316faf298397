package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single canonical role identifier used for every authorization decision.
type Role int

const (
	RoleAdministrator Role = 1
	RoleClient        Role = 2
	RoleResponsible   Role = 3
)

var roleNames = map[Role]string{
	RoleAdministrator: "administrator",
	RoleClient:        "client",
	RoleResponsible:   "responsible",
}

// roleAliases maps accepted case-insensitive names onto role ids.
var roleAliases = map[string]Role{
	"administrator": RoleAdministrator,
	"admin":         RoleAdministrator,
	"client":        RoleClient,
	"external user": RoleClient,
	"responsible":   RoleResponsible,
	"internal user": RoleResponsible,
	"agent":         RoleResponsible,
}

// Valid reports whether r is a known role id.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsStaff reports whether r handles tickets on behalf of the helpdesk.
func (r Role) IsStaff() bool {
	return r == RoleAdministrator || r == RoleResponsible
}

// ParseRole resolves a role name. Matching is exact after case folding.
func ParseRole(name string) (Role, error) {
	if role, ok := roleAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return role, nil
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// User is any account: clients open tickets, responsibles work them, administrators manage everything.
type User struct {
	ID           int64
	Name         string
	Email        string
	RUT          *string
	PasswordHash string
	Role         Role
	DepartmentID *int64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
