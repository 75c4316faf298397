package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/access"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/events"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	"github.com/helpdesk-io/ticket-service/internal/sla"
	"github.com/helpdesk-io/ticket-service/internal/ticketcode"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

// Field limits for ticket content, counted in runes after trimming.
const (
	SubjectMinLength     = 5
	SubjectMaxLength     = 200
	DescriptionMinLength = 10

	defaultCodeInsertAttempts = 3
	overdueWindow             = 24 * time.Hour
)

// AutoAssigner picks an initial assignee for a new ticket. Returning nil leaves it unassigned.
type AutoAssigner interface {
	Assign(ctx context.Context, ticket *domain.Ticket) (*int64, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets        repository.TicketRepository
	departments    repository.DepartmentRepository
	priorities     repository.PriorityRepository
	users          repository.UserRepository
	history        repository.TicketHistoryRepository
	tx             repository.TxManager
	codes          *ticketcode.Generator
	dispatcher     events.Dispatcher
	autoAssigner   AutoAssigner
	logger         *zap.Logger
	now            func() time.Time
	insertAttempts int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	DepartmentRepo repository.DepartmentRepository
	PriorityRepo   repository.PriorityRepository
	UserRepo       repository.UserRepository
	HistoryRepo    repository.TicketHistoryRepository
	// Transactor groups a ticket write with its history entry. Nil runs them without a transaction.
	Transactor repository.TxManager
	// Codes defaults to a generator reading the ticket repository.
	Codes              *ticketcode.Generator
	Dispatcher         events.Dispatcher
	AutoAssigner       AutoAssigner
	Logger             *zap.Logger
	Clock              func() time.Time
	CodeInsertAttempts int
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Subject      string
	Description  string
	DepartmentID int64
	PriorityID   int64
	RequesterID  int64
}

// UpdateTicketInput carries a partial update. Nil fields are left untouched.
type UpdateTicketInput struct {
	Subject     *string
	Description *string
	// DepartmentID may only restate the current department; Derive moves tickets.
	DepartmentID *int64
	PriorityID   *int64
	StatusID     *domain.StatusID
}

// TicketListOptions narrows List. Nil fields do not filter and a zero Limit returns every match.
type TicketListOptions struct {
	RequesterID *int64
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// DeriveInput describes a department transfer.
type DeriveInput struct {
	DepartmentID int64
	Reason       string
	AgentID      int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	codes := deps.Codes
	if codes == nil {
		codes = ticketcode.NewGenerator(deps.TicketRepo, ticketcode.WithClock(clock), ticketcode.WithLogger(logger))
	}
	tx := deps.Transactor
	if tx == nil {
		tx = noTx{}
	}
	attempts := deps.CodeInsertAttempts
	if attempts <= 0 {
		attempts = defaultCodeInsertAttempts
	}
	return &TicketService{
		tickets:        deps.TicketRepo,
		departments:    deps.DepartmentRepo,
		priorities:     deps.PriorityRepo,
		users:          deps.UserRepo,
		history:        deps.HistoryRepo,
		tx:             tx,
		codes:          codes,
		dispatcher:     deps.Dispatcher,
		autoAssigner:   deps.AutoAssigner,
		logger:         logger,
		now:            clock,
		insertAttempts: attempts,
	}
}

// Create opens a ticket in status New with an SLA due date derived from its priority.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if err := validateContent(subject, description); err != nil {
		return nil, err
	}
	if input.DepartmentID <= 0 || input.PriorityID <= 0 || input.RequesterID <= 0 {
		return nil, apperrors.NewValidationError("department_id, priority_id and requester_id are required", nil)
	}

	if _, err := s.activeDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}
	priority, err := s.priorities.GetByID(ctx, input.PriorityID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewInvalidReference("priority", input.PriorityID)
		}
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, input.RequesterID); err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewInvalidReference("requester", input.RequesterID)
		}
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		Subject:      subject,
		Description:  description,
		DepartmentID: input.DepartmentID,
		PriorityID:   priority.ID,
		StatusID:     domain.StatusNew,
		RequesterID:  input.RequesterID,
		CreatedAt:    now,
		DueAt:        sla.DueAt(now, priority.Level),
	}
	if s.autoAssigner != nil {
		assignee, err := s.autoAssigner.Assign(ctx, ticket)
		if err != nil {
			return nil, err
		}
		ticket.AssigneeID = assignee
	}

	requester := input.RequesterID
	if err := s.insertWithCode(ctx, ticket, &requester); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      events.Actor{UserID: &requester},
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			PriorityID:   ticket.PriorityID,
			RequesterID:  ticket.RequesterID,
			Subject:      ticket.Subject,
			DueAt:        ticket.DueAt,
		},
	})
	return ticket, nil
}

// insertWithCode draws a code and inserts the ticket with its CREATED entry,
// drawing again when another writer took the same code. Each attempt is its
// own transaction because a unique violation aborts the one it happens in.
func (s *TicketService) insertWithCode(ctx context.Context, ticket *domain.Ticket, requester *int64) error {
	for attempt := 1; attempt <= s.insertAttempts; attempt++ {
		ticket.Code = s.codes.Next(ctx)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.tickets.Create(ctx, ticket); err != nil {
				return err
			}
			return s.record(ctx, &domain.TicketHistory{
				TicketID:       ticket.ID,
				ActorID:        requester,
				ChangeType:     domain.ChangeTypeCreated,
				ToDepartmentID: &ticket.DepartmentID,
			})
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}
		s.logger.Warn("ticket code collision, retrying",
			zap.String("code", ticket.Code), zap.Int("attempt", attempt))
	}
	return apperrors.NewConflict("could not allocate a unique ticket code", map[string]any{"code": ticket.Code})
}

// List returns tickets newest first. Principals that may not see every
// ticket get exactly the ones CanRead grants them: requested, assigned and,
// for responsibles, their department's.
func (s *TicketService) List(ctx context.Context, principal *access.Principal, opts TicketListOptions) ([]domain.Ticket, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}
	if opts.CreatedFrom != nil && opts.CreatedTo != nil && opts.CreatedTo.Before(*opts.CreatedFrom) {
		return nil, apperrors.NewValidationError("created_to is before created_from", nil)
	}
	filter := repository.TicketFilter{
		RequesterID: opts.RequesterID,
		CreatedFrom: opts.CreatedFrom,
		CreatedTo:   opts.CreatedTo,
		Order:       repository.OrderCreatedDesc,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}
	if !access.CanSeeAll(principal) {
		filter.Scope = &repository.AgentScope{
			DepartmentID:     access.ReadableDepartment(principal),
			AssigneeID:       principal.UserID,
			IncludeRequested: true,
		}
	}
	return s.tickets.List(ctx, filter)
}

// GetByID fetches a ticket the principal may read.
func (s *TicketService) GetByID(ctx context.Context, id int64, principal *access.Principal) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// Update applies the present fields of input and stamps updated_at.
func (s *TicketService) Update(ctx context.Context, id int64, input UpdateTicketInput, principal *access.Principal) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	subject, description := ticket.Subject, ticket.Description
	if input.Subject != nil {
		subject = strings.TrimSpace(*input.Subject)
	}
	if input.Description != nil {
		description = strings.TrimSpace(*input.Description)
	}
	if err := validateContent(subject, description); err != nil {
		return nil, err
	}

	var fields []string
	oldStatus := ticket.StatusID
	now := s.now()

	if input.Subject != nil {
		ticket.Subject = subject
		fields = append(fields, "subject")
	}
	if input.Description != nil {
		ticket.Description = description
		fields = append(fields, "description")
	}
	if input.DepartmentID != nil {
		if _, err := s.activeDepartment(ctx, *input.DepartmentID); err != nil {
			return nil, err
		}
		if *input.DepartmentID != ticket.DepartmentID {
			return nil, apperrors.NewInvalidOperation("department transfers go through derive", map[string]any{
				"ticket_id":     id,
				"department_id": *input.DepartmentID,
			})
		}
	}
	if input.PriorityID != nil {
		if _, err := s.priorities.GetByID(ctx, *input.PriorityID); err != nil {
			if apperrors.IsNoRows(err) {
				return nil, apperrors.NewInvalidReference("priority", *input.PriorityID)
			}
			return nil, err
		}
		ticket.PriorityID = *input.PriorityID
		fields = append(fields, "priority_id")
	}
	if input.StatusID != nil {
		status := *input.StatusID
		if !status.Valid() {
			return nil, apperrors.NewInvalidReference("status", int64(status))
		}
		ticket.StatusID = status
		switch {
		case status == domain.StatusResolved && ticket.ResolvedAt == nil:
			ticket.ResolvedAt = &now
		case status == domain.StatusClosed && ticket.ClosedAt == nil:
			ticket.ClosedAt = &now
		}
		fields = append(fields, "status_id")
	}
	ticket.UpdatedAt = &now

	if err := s.save(ctx, ticket, &domain.TicketHistory{
		TicketID:   ticket.ID,
		ActorID:    actorID(principal),
		ChangeType: domain.ChangeTypeUpdated,
		Reason:     strings.Join(fields, ","),
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketUpdated,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      actorOf(principal),
		Payload: events.TicketUpdatedPayload{
			Fields:    fields,
			OldStatus: oldStatus,
			NewStatus: ticket.StatusID,
		},
	})
	return ticket, nil
}

// Delete hard-deletes a ticket. Only its requester or an administrator may do so.
func (s *TicketService) Delete(ctx context.Context, id int64, principal *access.Principal) error {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDelete(principal, ticket) {
		return apperrors.NewForbidden("only the requester may delete this ticket")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if apperrors.IsNoRows(err) {
			return ticketNotFound(id)
		}
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketDeleted,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      actorOf(principal),
	})
	return nil
}

// Take assigns the ticket to agentID and moves it to In Progress.
// Taking a ticket already held by the same agent succeeds again.
func (s *TicketService) Take(ctx context.Context, id, agentID int64) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	agent, err := s.agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if ticket.AssigneeID != nil && *ticket.AssigneeID != agentID {
		return nil, apperrors.NewConflict("ticket already assigned to another agent", map[string]any{
			"ticket_id":   id,
			"assignee_id": *ticket.AssigneeID,
		})
	}

	newlyTaken := ticket.AssigneeID == nil
	now := s.now()
	ticket.AssigneeID = &agent.ID
	ticket.StatusID = domain.StatusInProgress
	ticket.UpdatedAt = &now
	var entry *domain.TicketHistory
	if newlyTaken {
		entry = &domain.TicketHistory{
			TicketID:   ticket.ID,
			ActorID:    &agent.ID,
			ChangeType: domain.ChangeTypeTaken,
		}
	}
	if err := s.save(ctx, ticket, entry); err != nil {
		return nil, err
	}
	if !newlyTaken {
		return ticket, nil
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketTaken,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      events.Actor{UserID: &agent.ID, Role: agent.Role},
		Payload:    events.TicketTakenPayload{AssigneeID: agent.ID},
	})
	return ticket, nil
}

// Derive transfers the ticket to another department for re-triage: the
// assignee is cleared and the status returns to New.
func (s *TicketService) Derive(ctx context.Context, id int64, input DeriveInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}
	if input.DepartmentID == ticket.DepartmentID {
		return nil, apperrors.NewInvalidOperation("ticket already belongs to this department", map[string]any{
			"ticket_id":     id,
			"department_id": input.DepartmentID,
		})
	}

	from := ticket.DepartmentID
	now := s.now()
	ticket.DepartmentID = input.DepartmentID
	ticket.AssigneeID = nil
	ticket.StatusID = domain.StatusNew
	ticket.UpdatedAt = &now

	reason := strings.TrimSpace(input.Reason)
	var actor *int64
	if input.AgentID > 0 {
		actor = &input.AgentID
	}
	if err := s.save(ctx, ticket, &domain.TicketHistory{
		TicketID:         ticket.ID,
		ActorID:          actor,
		ChangeType:       domain.ChangeTypeDerived,
		FromDepartmentID: &from,
		ToDepartmentID:   &ticket.DepartmentID,
		Reason:           reason,
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketDerived,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      events.Actor{UserID: actor},
		Payload: events.TicketDerivedPayload{
			FromDepartmentID: from,
			ToDepartmentID:   ticket.DepartmentID,
			Reason:           reason,
		},
	})
	return ticket, nil
}

// ListOpen returns the agent's open queue, most urgent first.
func (s *TicketService) ListOpen(ctx context.Context, agentID int64) ([]domain.Ticket, error) {
	return s.queue(ctx, agentID, repository.TicketFilter{
		Statuses: domain.OpenStatuses,
		Order:    repository.OrderUrgency,
	})
}

// ListClosed returns resolved and closed tickets by priority, oldest first.
func (s *TicketService) ListClosed(ctx context.Context, agentID int64) ([]domain.Ticket, error) {
	return s.queue(ctx, agentID, repository.TicketFilter{
		Statuses: domain.ClosedStatuses,
		Order:    repository.OrderPriorityCreated,
	})
}

// ListOverdue returns open tickets already past due or due within the next 24 hours.
func (s *TicketService) ListOverdue(ctx context.Context, agentID int64) ([]domain.Ticket, error) {
	cutoff := s.now().Add(overdueWindow)
	return s.queue(ctx, agentID, repository.TicketFilter{
		Statuses:  domain.OpenStatuses,
		DueBefore: &cutoff,
		Order:     repository.OrderUrgency,
	})
}

// History returns the audit trail of a ticket the principal may read.
func (s *TicketService) History(ctx context.Context, id int64, principal *access.Principal) ([]domain.TicketHistory, error) {
	if _, err := s.GetByID(ctx, id, principal); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id)
}

// queue scopes a listing to the agent: administrators see everything,
// responsibles see their department plus whatever is assigned to them.
func (s *TicketService) queue(ctx context.Context, agentID int64, filter repository.TicketFilter) ([]domain.Ticket, error) {
	agent, err := s.agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAdministrator {
		filter.Scope = &repository.AgentScope{DepartmentID: agent.DepartmentID, AssigneeID: agent.ID}
	}
	return s.tickets.List(ctx, filter)
}

func (s *TicketService) load(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, ticketNotFound(id)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) agent(ctx context.Context, agentID int64) (*domain.User, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewInvalidReference("agent", agentID)
		}
		return nil, err
	}
	if !agent.Active || !agent.Role.IsStaff() {
		return nil, apperrors.NewForbidden("only responsibles and administrators work tickets")
	}
	return agent, nil
}

func (s *TicketService) activeDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewInvalidReference("department", id)
		}
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewInvalidReference("department", id)
	}
	return dept, nil
}

// save writes ticket and, when present, entry in one transaction.
func (s *TicketService) save(ctx context.Context, ticket *domain.Ticket, entry *domain.TicketHistory) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			if apperrors.IsNoRows(err) {
				return ticketNotFound(ticket.ID)
			}
			return err
		}
		if entry == nil {
			return nil
		}
		return s.record(ctx, entry)
	})
}

func (s *TicketService) record(ctx context.Context, entry *domain.TicketHistory) error {
	if s.history == nil {
		return nil
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// noTx runs the unit of work directly.
type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func validateContent(subject, description string) error {
	details := map[string]any{}
	if n := utf8.RuneCountInString(subject); n < SubjectMinLength || n > SubjectMaxLength {
		details["subject"] = "must be between 5 and 200 characters"
	}
	if utf8.RuneCountInString(description) < DescriptionMinLength {
		details["description"] = "must be at least 10 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket content", details)
	}
	return nil
}

func ticketNotFound(id int64) error {
	return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
}

func actorID(principal *access.Principal) *int64 {
	if principal == nil {
		return nil
	}
	id := principal.UserID
	return &id
}

func actorOf(principal *access.Principal) events.Actor {
	if principal == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: actorID(principal), Role: principal.Role}
}
