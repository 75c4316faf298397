package domain

import "time"

// Department represents a high-level organizational unit tickets are routed to.
type Department struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
