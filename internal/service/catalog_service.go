package service

import (
	"context"
	"errors"
	"strings"

	"github.com/helpdesk-io/ticket-service/internal/access"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	"github.com/helpdesk-io/ticket-service/internal/sla"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

// CatalogService serves the reference data tickets point at.
type CatalogService struct {
	departments repository.DepartmentRepository
	priorities  repository.PriorityRepository
	statuses    repository.StatusRepository
}

// CatalogDependencies encapsulates repositories required for reference data.
type CatalogDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	PriorityRepo   repository.PriorityRepository
	StatusRepo     repository.StatusRepository
}

// PriorityView is a priority together with its expected response time.
type PriorityView struct {
	domain.Priority
	ExpectedResponseHours int
}

// StatusView is a status together with its queue classification.
type StatusView struct {
	domain.Status
	Open bool
}

// DepartmentInput carries department fields. Nil fields are left untouched on update.
type DepartmentInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		departments: deps.DepartmentRepo,
		priorities:  deps.PriorityRepo,
		statuses:    deps.StatusRepo,
	}
}

func requireAdmin(principal *access.Principal) error {
	if !access.HasRole(principal, domain.RoleAdministrator) {
		return apperrors.NewForbidden("administrator role required")
	}
	return nil
}

// ListDepartments returns departments ordered by name. Inactive ones are listed for administrators only.
func (s *CatalogService) ListDepartments(ctx context.Context, principal *access.Principal, includeInactive bool) ([]domain.Department, error) {
	if includeInactive && !access.HasRole(principal, domain.RoleAdministrator) {
		includeInactive = false
	}
	return s.departments.List(ctx, includeInactive)
}

// GetDepartment fetches a department by id.
func (s *CatalogService) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, err
	}
	return dept, nil
}

// CreateDepartment creates a new active department.
func (s *CatalogService) CreateDepartment(ctx context.Context, principal *access.Principal, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	dept := &domain.Department{IsActive: true}
	if err := applyDepartmentInput(dept, input); err != nil {
		return nil, err
	}
	if dept.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("department name already exists", map[string]any{"name": dept.Name})
		}
		return nil, err
	}
	return dept, nil
}

// UpdateDepartment applies the present fields of input.
func (s *CatalogService) UpdateDepartment(ctx context.Context, principal *access.Principal, id int64, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyDepartmentInput(dept, input); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict("department name already exists", map[string]any{"name": dept.Name})
		case apperrors.IsNoRows(err):
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, err
	}
	return dept, nil
}

// ListPriorities returns priorities with the SLA response window of each level.
func (s *CatalogService) ListPriorities(ctx context.Context) ([]PriorityView, error) {
	priorities, err := s.priorities.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PriorityView, 0, len(priorities))
	for _, p := range priorities {
		views = append(views, PriorityView{Priority: p, ExpectedResponseHours: sla.ResponseHours(p.Level)})
	}
	return views, nil
}

// ListStatuses returns the fixed status table.
func (s *CatalogService) ListStatuses(ctx context.Context) ([]StatusView, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]StatusView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, StatusView{Status: st, Open: st.ID.IsOpen()})
	}
	return views, nil
}

func applyDepartmentInput(dept *domain.Department, input DepartmentInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return apperrors.NewValidationError("invalid department name", map[string]any{"name": "must be 1 to 120 characters"})
		}
		dept.Name = name
	}
	if input.Description != nil {
		dept.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		dept.IsActive = *input.IsActive
	}
	return nil
}
