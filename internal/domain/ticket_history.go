package domain

import "time"

// TicketChangeType captures what happened in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated TicketChangeType = "CREATED"
	ChangeTypeTaken   TicketChangeType = "TAKEN"
	ChangeTypeDerived TicketChangeType = "DERIVED"
	ChangeTypeUpdated TicketChangeType = "UPDATED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID               int64
	TicketID         int64
	ActorID          *int64
	ChangeType       TicketChangeType
	FromDepartmentID *int64
	ToDepartmentID   *int64
	Reason           string
	CreatedAt        time.Time
}
