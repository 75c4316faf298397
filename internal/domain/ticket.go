package domain

import "time"

// StatusID enumerates the fixed ticket states.
type StatusID int64

const (
	StatusNew        StatusID = 1
	StatusInProgress StatusID = 2
	StatusEscalated  StatusID = 3
	StatusResolved   StatusID = 4
	StatusClosed     StatusID = 5
)

// OpenStatuses and ClosedStatuses partition the status table for queue views.
var (
	OpenStatuses   = []StatusID{StatusNew, StatusInProgress, StatusEscalated}
	ClosedStatuses = []StatusID{StatusResolved, StatusClosed}
)

var statusNames = map[StatusID]string{
	StatusNew:        "New",
	StatusInProgress: "In Progress",
	StatusEscalated:  "Escalated",
	StatusResolved:   "Resolved",
	StatusClosed:     "Closed",
}

// Valid reports whether s is one of the fixed status ids.
func (s StatusID) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s StatusID) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsOpen reports whether s belongs to the open set.
func (s StatusID) IsOpen() bool {
	return s == StatusNew || s == StatusInProgress || s == StatusEscalated
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           int64
	Code         string
	Subject      string
	Description  string
	DepartmentID int64
	PriorityID   int64
	StatusID     StatusID
	RequesterID  int64
	AssigneeID   *int64
	CreatedAt    time.Time
	DueAt        time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	UpdatedAt    *time.Time
}

// AssignedTo reports whether the ticket is currently assigned to userID.
func (t *Ticket) AssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
