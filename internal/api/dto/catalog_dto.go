package dto

import (
	"time"

	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/service"
)

// DepartmentRequest payload for create and patch.
type DepartmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentResponse represents a department.
type DepartmentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriorityResponse represents a priority level.
type PriorityResponse struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	Level                 int    `json:"level"`
	ExpectedResponseHours int    `json:"expected_response_hours"`
}

// StatusResponse represents a ticket status.
type StatusResponse struct {
	ID   domain.StatusID `json:"id"`
	Name string          `json:"name"`
	Open bool            `json:"open"`
}

// NewDepartmentResponse maps a department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
	}
}

// NewPriorityResponses maps priority views.
func NewPriorityResponses(views []service.PriorityView) []PriorityResponse {
	items := make([]PriorityResponse, 0, len(views))
	for _, v := range views {
		items = append(items, PriorityResponse{ID: v.ID, Name: v.Name, Level: v.Level, ExpectedResponseHours: v.ExpectedResponseHours})
	}
	return items
}

// NewStatusResponses maps status views.
func NewStatusResponses(views []service.StatusView) []StatusResponse {
	items := make([]StatusResponse, 0, len(views))
	for _, v := range views {
		items = append(items, StatusResponse{ID: v.ID, Name: v.Name, Open: v.Open})
	}
	return items
}
