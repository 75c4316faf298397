package domain

// Priority levels. Lower level means more urgent.
const (
	PriorityLevelHigh   = 1
	PriorityLevelMedium = 2
	PriorityLevelLow    = 3
)

// Priority is a reference row; Level drives SLA computation and queue ordering.
type Priority struct {
	ID    int64
	Name  string
	Level int
}

// Status is the reference row behind StatusID.
type Status struct {
	ID   StatusID
	Name string
}
