package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

func TestBuildTicketWhereEmpty(t *testing.T) {
	where, args := buildTicketWhere(TicketFilter{})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestBuildTicketWherePlaceholdersInOrder(t *testing.T) {
	requester := int64(42)
	due := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	where, args := buildTicketWhere(TicketFilter{
		RequesterID: &requester,
		Statuses:    domain.OpenStatuses,
		DueBefore:   &due,
	})
	assert.Equal(t, "1=1 AND t.requester_id=$1 AND t.status_id IN ($2,$3,$4) AND t.due_at <= $5", where)
	assert.Equal(t, []any{requester, domain.StatusNew, domain.StatusInProgress, domain.StatusEscalated, due}, args)
}

func TestBuildTicketWhereAgentScope(t *testing.T) {
	dept := int64(3)
	where, args := buildTicketWhere(TicketFilter{Scope: &AgentScope{DepartmentID: &dept, AssigneeID: 7}})
	assert.Equal(t, "1=1 AND (t.assignee_id=$1 OR t.department_id=$2)", where)
	assert.Equal(t, []any{int64(7), dept}, args)

	where, _ = buildTicketWhere(TicketFilter{Scope: &AgentScope{AssigneeID: 7}})
	assert.Equal(t, "1=1 AND (t.assignee_id=$1)", where)

	where, args = buildTicketWhere(TicketFilter{Scope: &AgentScope{DepartmentID: &dept, AssigneeID: 7, IncludeRequested: true}})
	assert.Equal(t, "1=1 AND (t.assignee_id=$1 OR t.requester_id=$1 OR t.department_id=$2)", where)
	assert.Equal(t, []any{int64(7), dept}, args)
}

func TestBuildTicketWhereCreatedWindow(t *testing.T) {
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	where, args := buildTicketWhere(TicketFilter{CreatedFrom: &from, CreatedTo: &to})
	assert.Equal(t, "1=1 AND t.created_at >= $1 AND t.created_at <= $2", where)
	assert.Equal(t, []any{from, to}, args)
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "t.created_at DESC, t.id DESC", orderClause(OrderCreatedDesc))
	assert.Equal(t, "p.level ASC, t.due_at ASC, t.id ASC", orderClause(OrderUrgency))
	assert.Equal(t, "p.level ASC, t.created_at ASC, t.id ASC", orderClause(OrderPriorityCreated))
}

func TestPageClause(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		want          string
	}{
		{"zero limit is unbounded", 0, 0, ""},
		{"offset without limit", 0, 20, " OFFSET 20"},
		{"limit and offset", 50, 100, " LIMIT 50 OFFSET 100"},
		{"limit is capped", 5000, 0, " LIMIT 500"},
		{"negative values ignored", -1, -3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageClause(tt.limit, tt.offset))
		})
	}
}

func TestSequentialCodePattern(t *testing.T) {
	pattern := regexp.MustCompile(sequentialCodePattern("TK202507"))
	assert.True(t, pattern.MatchString("TK202507003"))
	assert.True(t, pattern.MatchString("TK2025071000"))
	assert.False(t, pattern.MatchString("TK2025-071234"))
	assert.False(t, pattern.MatchString("TK202508001"))
}
