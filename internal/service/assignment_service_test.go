package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

func TestAutoAssignerPicksLeastLoadedResponsible(t *testing.T) {
	f := newFixture()
	assigner := NewDepartmentAutoAssigner(f.users, f.tickets, nil)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		DepartmentRepo: f.departments,
		PriorityRepo:   f.priorities,
		UserRepo:       f.users,
		HistoryRepo:    f.history,
		AutoAssigner:   assigner,
		Clock:          f.clock.Now,
	})

	first := mustCreate(t, svc, validInput(clientAlice))
	require.NotNil(t, first.AssigneeID)
	assert.Equal(t, agentAna, *first.AssigneeID, "ties go to the lowest id")
	assert.Equal(t, domain.StatusNew, first.StatusID)

	second := mustCreate(t, svc, validInput(clientBob))
	require.NotNil(t, second.AssigneeID)
	assert.Equal(t, agentBeto, *second.AssigneeID)

	third := mustCreate(t, svc, validInput(clientBob))
	assert.Equal(t, agentAna, *third.AssigneeID)
}

func TestAutoAssignerIgnoresClosedAndOtherDepartments(t *testing.T) {
	f := newFixture()
	ana, other := agentAna, agentOther
	f.tickets.rows[1] = domain.Ticket{ID: 1, DepartmentID: deptSupport, StatusID: domain.StatusClosed, AssigneeID: &ana}
	f.tickets.rows[2] = domain.Ticket{ID: 2, DepartmentID: deptNetworking, StatusID: domain.StatusNew, AssigneeID: &other}
	f.tickets.nextID = 2

	beto := f.users.rows[agentBeto]
	beto.Active = false
	f.users.rows[agentBeto] = beto

	got, err := NewDepartmentAutoAssigner(f.users, f.tickets, nil).Assign(context.Background(), &domain.Ticket{DepartmentID: deptSupport})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, agentAna, *got)
}

func TestAutoAssignerLeavesTicketUnassignedWithoutCandidates(t *testing.T) {
	f := newFixture()
	got, err := NewDepartmentAutoAssigner(f.users, f.tickets, nil).Assign(context.Background(), &domain.Ticket{DepartmentID: deptArchived})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAutoAssignerPropagatesLookupFailure(t *testing.T) {
	f := newFixture()
	f.users.err = errStoreDown
	_, err := NewDepartmentAutoAssigner(f.users, f.tickets, nil).Assign(context.Background(), &domain.Ticket{DepartmentID: deptSupport})
	assert.ErrorIs(t, err, errStoreDown)
}
