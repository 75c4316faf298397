package events

import (
	"time"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketTaken   EventType = "ticket_taken"
	EventTicketDerived EventType = "ticket_derived"
	EventTicketDeleted EventType = "ticket_deleted"
)

// AllEventTypes lists every event the ticket service publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketTaken,
	EventTicketDerived,
	EventTicketDeleted,
}

// Actor encapsulates actor metadata for an event. A nil UserID marks an internal caller.
type Actor struct {
	UserID *int64      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TicketID   int64     `json:"ticket_id"`
	TicketCode string    `json:"ticket_code"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID int64     `json:"department_id"`
	PriorityID   int64     `json:"priority_id"`
	RequesterID  int64     `json:"requester_id"`
	Subject      string    `json:"subject"`
	DueAt        time.Time `json:"due_at"`
}

// TicketUpdatedPayload lists the fields an update touched.
type TicketUpdatedPayload struct {
	Fields    []string        `json:"fields"`
	OldStatus domain.StatusID `json:"old_status"`
	NewStatus domain.StatusID `json:"new_status"`
}

// TicketTakenPayload payload.
type TicketTakenPayload struct {
	AssigneeID int64 `json:"assignee_id"`
}

// TicketDerivedPayload payload.
type TicketDerivedPayload struct {
	FromDepartmentID int64  `json:"from_department_id"`
	ToDepartmentID   int64  `json:"to_department_id"`
	Reason           string `json:"reason,omitempty"`
}
