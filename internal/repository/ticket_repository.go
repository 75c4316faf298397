package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// TicketOrder selects the ORDER BY clause of a listing.
type TicketOrder int

const (
	// OrderCreatedDesc lists newest first.
	OrderCreatedDesc TicketOrder = iota
	// OrderUrgency lists by priority level, then nearest due date.
	OrderUrgency
	// OrderPriorityCreated lists by priority level, then oldest first.
	OrderPriorityCreated
)

// AgentScope restricts a listing to one department's tickets plus those
// assigned to an agent, and with IncludeRequested those the agent opened.
type AgentScope struct {
	DepartmentID     *int64
	AssigneeID       int64
	IncludeRequested bool
}

// TicketFilter captures listing parameters. Nil and empty fields do not
// filter. A Limit of zero returns every matching row.
type TicketFilter struct {
	RequesterID  *int64
	AssigneeID   *int64
	DepartmentID *int64
	Scope        *AgentScope
	Statuses     []domain.StatusID
	DueBefore    *time.Time
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Order        TicketOrder
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	LatestCodeBetween(ctx context.Context, prefix string, from, to time.Time) (string, error)
}

const ticketColumns = `t.id, t.code, t.subject, t.description, t.department_id, t.priority_id, t.status_id,
               t.requester_id, t.assignee_id, t.created_at, t.due_at, t.resolved_at, t.closed_at, t.updated_at`

type ticketRepository struct {
	conn
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool, timeout time.Duration) TicketRepository {
	return &ticketRepository{conn{pool: pool, timeout: timeout}}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        INSERT INTO tickets (code, subject, description, department_id, priority_id, status_id,
                             requester_id, assignee_id, created_at, due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	err := r.db(ctx).QueryRow(ctx, query,
		ticket.Code,
		ticket.Subject,
		ticket.Description,
		ticket.DepartmentID,
		ticket.PriorityID,
		ticket.StatusID,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.CreatedAt,
		ticket.DueAt,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	if isUniqueViolation(err, "tickets_code_key") {
		return ErrDuplicateCode
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        UPDATE tickets SET subject=$1, description=$2, department_id=$3, priority_id=$4, status_id=$5,
            assignee_id=$6, due_at=$7, resolved_at=$8, closed_at=$9, updated_at=$10
        WHERE id=$11`
	cmd, err := r.db(ctx).Exec(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.DepartmentID,
		ticket.PriorityID,
		ticket.StatusID,
		ticket.AssigneeID,
		ticket.DueAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	cmd, err := r.db(ctx).Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	rows, err := r.db(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) LatestCodeBetween(ctx context.Context, prefix string, from, to time.Time) (string, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	// Only prefix plus digits is sequential. Length first so TK2025071000
	// sorts above TK202507999.
	const query = `
        SELECT code FROM tickets
        WHERE created_at BETWEEN $1 AND $2 AND code ~ $3
        ORDER BY LENGTH(code) DESC, code DESC
        LIMIT 1`
	var code string
	err := r.db(ctx).QueryRow(ctx, query, from, to, sequentialCodePattern(prefix)).Scan(&code)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return code, err
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	where, args := buildTicketWhere(filter)

	query := fmt.Sprintf(`SELECT %s FROM tickets t JOIN priorities p ON p.id = t.priority_id
             WHERE %s ORDER BY %s%s`,
		ticketColumns, where, orderClause(filter.Order), pageClause(filter.Limit, filter.Offset))

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	where, args := buildTicketWhere(filter)
	var total int64
	err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&total)
	return total, err
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("t.requester_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("t.department_id=$%d", len(args)))
	}
	if filter.Scope != nil {
		args = append(args, filter.Scope.AssigneeID)
		scope := []string{fmt.Sprintf("t.assignee_id=$%d", len(args))}
		if filter.Scope.IncludeRequested {
			scope = append(scope, fmt.Sprintf("t.requester_id=$%d", len(args)))
		}
		if filter.Scope.DepartmentID != nil {
			args = append(args, *filter.Scope.DepartmentID)
			scope = append(scope, fmt.Sprintf("t.department_id=$%d", len(args)))
		}
		clauses = append(clauses, "("+strings.Join(scope, " OR ")+")")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("t.due_at <= $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func orderClause(order TicketOrder) string {
	switch order {
	case OrderUrgency:
		return "p.level ASC, t.due_at ASC, t.id ASC"
	case OrderPriorityCreated:
		return "p.level ASC, t.created_at ASC, t.id ASC"
	default:
		return "t.created_at DESC, t.id DESC"
	}
}

// sequentialCodePattern matches prefix followed by digits only, so
// timestamp fallback codes never feed the monthly sequence.
func sequentialCodePattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Code,
			&ticket.Subject,
			&ticket.Description,
			&ticket.DepartmentID,
			&ticket.PriorityID,
			&ticket.StatusID,
			&ticket.RequesterID,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.DueAt,
			&ticket.ResolvedAt,
			&ticket.ClosedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
