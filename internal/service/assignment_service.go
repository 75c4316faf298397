package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
)

// DepartmentAutoAssigner hands new tickets to the active responsible of the
// ticket's department with the fewest open tickets. Ties go to the lowest id.
type DepartmentAutoAssigner struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// NewDepartmentAutoAssigner constructs the assigner.
func NewDepartmentAutoAssigner(users repository.UserRepository, tickets repository.TicketRepository, logger *zap.Logger) *DepartmentAutoAssigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentAutoAssigner{users: users, tickets: tickets, logger: logger}
}

// Assign returns nil when the department has no eligible responsible.
func (a *DepartmentAutoAssigner) Assign(ctx context.Context, ticket *domain.Ticket) (*int64, error) {
	role := domain.RoleResponsible
	dept := ticket.DepartmentID
	candidates, err := a.users.List(ctx, repository.UserFilter{
		Role:         &role,
		DepartmentID: &dept,
		ActiveOnly:   true,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		a.logger.Debug("no responsible available for auto-assignment", zap.Int64("department_id", dept))
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	var (
		chosen int64
		best   int64 = -1
	)
	for _, candidate := range candidates {
		assignee := candidate.ID
		load, err := a.tickets.Count(ctx, repository.TicketFilter{
			AssigneeID: &assignee,
			Statuses:   domain.OpenStatuses,
		})
		if err != nil {
			return nil, err
		}
		if best < 0 || load < best {
			chosen, best = assignee, load
		}
	}
	a.logger.Debug("ticket auto-assigned",
		zap.Int64("department_id", dept),
		zap.Int64("assignee_id", chosen),
		zap.Int64("open_tickets", best))
	return &chosen, nil
}
