package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/ticket-service/internal/api/dto"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/service"
)

// TicketsHandler exposes the ticket lifecycle.
type TicketsHandler struct {
	service *service.TicketService
	now     func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, now: time.Now}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), service.CreateTicketInput{
		Subject:      req.Subject,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		PriorityID:   req.PriorityID,
		RequesterID:  p.UserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, h.now())})
}

// ListTickets GET /api/tickets?requester_id=&created_from=&created_to=&limit=&offset=.
// Without limit every visible ticket is returned.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	opts := service.TicketListOptions{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if opts.RequesterID, err = queryID(c, "requester_id"); err != nil {
		return err
	}
	if opts.CreatedFrom, err = queryTime(c, "created_from"); err != nil {
		return err
	}
	if opts.CreatedTo, err = queryTime(c, "created_to"); err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), p, opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets, h.now())})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetByID(c.UserContext(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, h.now())})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), id, service.UpdateTicketInput{
		Subject:      req.Subject,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		PriorityID:   req.PriorityID,
		StatusID:     req.StatusID,
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, h.now())})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id, p); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// TakeTicket POST /api/tickets/:id/take.
func (h *TicketsHandler) TakeTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Take(c.UserContext(), id, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, h.now())})
}

// DeriveTicket POST /api/tickets/:id/derive.
func (h *TicketsHandler) DeriveTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DeriveTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Derive(c.UserContext(), id, service.DeriveInput{
		DepartmentID: req.DepartmentID,
		Reason:       req.Reason,
		AgentID:      p.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, h.now())})
}

// OpenQueue GET /api/tickets/queue/open.
func (h *TicketsHandler) OpenQueue(c *fiber.Ctx) error {
	return h.queue(c, h.service.ListOpen)
}

// ClosedQueue GET /api/tickets/queue/closed.
func (h *TicketsHandler) ClosedQueue(c *fiber.Ctx) error {
	return h.queue(c, h.service.ListClosed)
}

// OverdueQueue GET /api/tickets/queue/overdue.
func (h *TicketsHandler) OverdueQueue(c *fiber.Ctx) error {
	return h.queue(c, h.service.ListOverdue)
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistoryResponse(entries)})
}

func (h *TicketsHandler) queue(c *fiber.Ctx, list func(ctx context.Context, agentID int64) ([]domain.Ticket, error)) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tickets, err := list(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets, h.now())})
}
