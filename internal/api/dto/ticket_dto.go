package dto

import (
	"time"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// CreateTicketRequest payload. The requester is always the caller.
type CreateTicketRequest struct {
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	DepartmentID int64  `json:"department_id"`
	PriorityID   int64  `json:"priority_id"`
}

// UpdateTicketRequest carries a partial update; omitted fields stay unchanged.
type UpdateTicketRequest struct {
	Subject      *string          `json:"subject"`
	Description  *string          `json:"description"`
	DepartmentID *int64           `json:"department_id"`
	PriorityID   *int64           `json:"priority_id"`
	StatusID     *domain.StatusID `json:"status_id"`
}

// DeriveTicketRequest payload.
type DeriveTicketRequest struct {
	DepartmentID int64  `json:"department_id"`
	Reason       string `json:"reason"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Subject      string          `json:"subject"`
	Description  string          `json:"description"`
	DepartmentID int64           `json:"department_id"`
	PriorityID   int64           `json:"priority_id"`
	StatusID     domain.StatusID `json:"status_id"`
	Status       string          `json:"status"`
	RequesterID  int64           `json:"requester_id"`
	AssigneeID   *int64          `json:"assignee_id"`
	CreatedAt    time.Time       `json:"created_at"`
	DueAt        time.Time       `json:"due_at"`
	Overdue      bool            `json:"overdue"`
	ResolvedAt   *time.Time      `json:"resolved_at"`
	ClosedAt     *time.Time      `json:"closed_at"`
	UpdatedAt    *time.Time      `json:"updated_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID               int64     `json:"id"`
	ChangeType       string    `json:"change_type"`
	ActorID          *int64    `json:"actor_id"`
	FromDepartmentID *int64    `json:"from_department_id,omitempty"`
	ToDepartmentID   *int64    `json:"to_department_id,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewTicketResponse maps a ticket. Overdue is evaluated against now for open tickets only.
func NewTicketResponse(t *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Code:         t.Code,
		Subject:      t.Subject,
		Description:  t.Description,
		DepartmentID: t.DepartmentID,
		PriorityID:   t.PriorityID,
		StatusID:     t.StatusID,
		Status:       t.StatusID.String(),
		RequesterID:  t.RequesterID,
		AssigneeID:   t.AssigneeID,
		CreatedAt:    t.CreatedAt,
		DueAt:        t.DueAt,
		Overdue:      t.StatusID.IsOpen() && now.After(t.DueAt),
		ResolvedAt:   t.ResolvedAt,
		ClosedAt:     t.ClosedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketListResponse maps a slice of tickets.
func NewTicketListResponse(tickets []domain.Ticket, now time.Time) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i], now))
	}
	return items
}

// NewTicketHistoryResponse maps audit entries.
func NewTicketHistoryResponse(entries []domain.TicketHistory) []TicketHistoryResponse {
	items := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, TicketHistoryResponse{
			ID:               e.ID,
			ChangeType:       string(e.ChangeType),
			ActorID:          e.ActorID,
			FromDepartmentID: e.FromDepartmentID,
			ToDepartmentID:   e.ToDepartmentID,
			Reason:           e.Reason,
			CreatedAt:        e.CreatedAt,
		})
	}
	return items
}
