// Package access decides who may see or change a ticket. Every role
// comparison in the service goes through this package and is done on
// domain.Role ids only.
package access

import "github.com/helpdesk-io/ticket-service/internal/domain"

// Principal is the acting user as established by the authentication layer.
// A nil *Principal denotes a trusted internal caller.
type Principal struct {
	UserID       int64
	Role         domain.Role
	DepartmentID *int64
}

// FromUser builds a principal from a loaded user.
func FromUser(user *domain.User) *Principal {
	if user == nil {
		return nil
	}
	return &Principal{UserID: user.ID, Role: user.Role, DepartmentID: user.DepartmentID}
}

// HasRole reports whether p holds one of roles. Nil principals hold every role.
func HasRole(p *Principal, roles ...domain.Role) bool {
	if p == nil {
		return true
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether p is an administrator.
func IsAdmin(p *Principal) bool {
	return p != nil && p.Role == domain.RoleAdministrator
}

// CanRead grants administrators, the requester, the assignee and responsibles
// of the ticket's department.
func CanRead(p *Principal, ticket *domain.Ticket) bool {
	if CanWrite(p, ticket) {
		return true
	}
	dept := ReadableDepartment(p)
	return dept != nil && *dept == ticket.DepartmentID
}

// ReadableDepartment is the department whose tickets p reads beyond its own
// and assigned ones: a responsible's department, nil for everyone else.
func ReadableDepartment(p *Principal) *int64 {
	if p == nil || p.Role != domain.RoleResponsible {
		return nil
	}
	return p.DepartmentID
}

// CanWrite grants administrators, the requester and the assignee.
func CanWrite(p *Principal, ticket *domain.Ticket) bool {
	if p == nil || p.Role == domain.RoleAdministrator {
		return true
	}
	return ticket.RequesterID == p.UserID || ticket.AssignedTo(p.UserID)
}

// CanDelete grants administrators and the owning requester.
func CanDelete(p *Principal, ticket *domain.Ticket) bool {
	if p == nil || p.Role == domain.RoleAdministrator {
		return true
	}
	return ticket.RequesterID == p.UserID
}

// CanWork reports whether p may take, derive and browse the agent queues.
func CanWork(p *Principal) bool {
	return HasRole(p, domain.RoleAdministrator, domain.RoleResponsible)
}

// CanSeeAll reports whether p may list every ticket unscoped.
func CanSeeAll(p *Principal) bool {
	return p == nil || p.Role == domain.RoleAdministrator
}
