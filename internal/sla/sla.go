// Package sla maps priority levels to response deadlines. The table is the
// single source for both ticket due dates and the catalog's expected
// response hours.
package sla

import (
	"time"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// DefaultOffset applies to any level outside the fixed table.
const DefaultOffset = 24 * time.Hour

var offsets = map[int]time.Duration{
	domain.PriorityLevelHigh:   4 * time.Hour,
	domain.PriorityLevelMedium: 24 * time.Hour,
	domain.PriorityLevelLow:    72 * time.Hour,
}

// Offset returns the response window for a priority level.
func Offset(level int) time.Duration {
	if d, ok := offsets[level]; ok {
		return d
	}
	return DefaultOffset
}

// DueAt computes the absolute deadline for a ticket created at now.
func DueAt(now time.Time, level int) time.Time {
	return now.Add(Offset(level))
}

// ResponseHours is the expected response time shown alongside priorities.
func ResponseHours(level int) int {
	return int(Offset(level) / time.Hour)
}
