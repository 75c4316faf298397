package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// PriorityRepository reads the fixed priority table.
type PriorityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Priority, error)
	List(ctx context.Context) ([]domain.Priority, error)
}

// StatusRepository reads the fixed status table.
type StatusRepository interface {
	List(ctx context.Context) ([]domain.Status, error)
}

type priorityRepository struct {
	conn
}

// NewPriorityRepository builds the repository.
func NewPriorityRepository(pool *pgxpool.Pool, timeout time.Duration) PriorityRepository {
	return &priorityRepository{conn{pool: pool, timeout: timeout}}
}

func (r *priorityRepository) GetByID(ctx context.Context, id int64) (*domain.Priority, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var priority domain.Priority
	err := r.db(ctx).QueryRow(ctx, `SELECT id, name, level FROM priorities WHERE id=$1`, id).
		Scan(&priority.ID, &priority.Name, &priority.Level)
	if err != nil {
		return nil, err
	}
	return &priority, nil
}

func (r *priorityRepository) List(ctx context.Context) ([]domain.Priority, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db(ctx).Query(ctx, `SELECT id, name, level FROM priorities ORDER BY level, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Priority
	for rows.Next() {
		var priority domain.Priority
		if err := rows.Scan(&priority.ID, &priority.Name, &priority.Level); err != nil {
			return nil, err
		}
		result = append(result, priority)
	}
	return result, rows.Err()
}

type statusRepository struct {
	conn
}

// NewStatusRepository builds the repository.
func NewStatusRepository(pool *pgxpool.Pool, timeout time.Duration) StatusRepository {
	return &statusRepository{conn{pool: pool, timeout: timeout}}
}

func (r *statusRepository) List(ctx context.Context) ([]domain.Status, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db(ctx).Query(ctx, `SELECT id, name FROM statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Status
	for rows.Next() {
		var status domain.Status
		if err := rows.Scan(&status.ID, &status.Name); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}
