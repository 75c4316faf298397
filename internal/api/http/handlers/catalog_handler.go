package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/ticket-service/internal/api/dto"
	"github.com/helpdesk-io/ticket-service/internal/service"
)

// CatalogHandler serves departments, priorities and statuses.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// ListDepartments GET /api/departments?include_inactive=.
func (h *CatalogHandler) ListDepartments(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	depts, err := h.catalog.ListDepartments(c.UserContext(), p, c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDepartment GET /api/departments/:id.
func (h *CatalogHandler) GetDepartment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	dept, err := h.catalog.GetDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// CreateDepartment POST /api/departments.
func (h *CatalogHandler) CreateDepartment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.catalog.CreateDepartment(c.UserContext(), p, departmentInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// UpdateDepartment PATCH /api/departments/:id.
func (h *CatalogHandler) UpdateDepartment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.catalog.UpdateDepartment(c.UserContext(), p, id, departmentInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// ListPriorities GET /api/priorities.
func (h *CatalogHandler) ListPriorities(c *fiber.Ctx) error {
	views, err := h.catalog.ListPriorities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPriorityResponses(views)})
}

// ListStatuses GET /api/statuses.
func (h *CatalogHandler) ListStatuses(c *fiber.Ctx) error {
	views, err := h.catalog.ListStatuses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponses(views)})
}

func departmentInput(req dto.DepartmentRequest) service.DepartmentInput {
	return service.DepartmentInput{Name: req.Name, Description: req.Description, IsActive: req.IsActive}
}
