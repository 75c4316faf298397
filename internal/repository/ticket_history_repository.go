package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	conn
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool, timeout time.Duration) TicketHistoryRepository {
	return &ticketHistoryRepository{conn{pool: pool, timeout: timeout}}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        INSERT INTO ticket_history (ticket_id, actor_id, change_type, from_department_id, to_department_id, reason)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db(ctx).QueryRow(ctx, query,
		history.TicketID,
		history.ActorID,
		history.ChangeType,
		history.FromDepartmentID,
		history.ToDepartmentID,
		history.Reason,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        SELECT id, ticket_id, actor_id, change_type, from_department_id, to_department_id, reason, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db(ctx).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ActorID,
			&history.ChangeType,
			&history.FromDepartmentID,
			&history.ToDepartmentID,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
