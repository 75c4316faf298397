package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Department, error)
}

type departmentRepository struct {
	conn
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool, timeout time.Duration) DepartmentRepository {
	return &departmentRepository{conn{pool: pool, timeout: timeout}}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        INSERT INTO departments (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db(ctx).QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.IsActive,
	).Scan(&dept.ID, &dept.CreatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        UPDATE departments SET name=$1, description=$2, is_active=$3
        WHERE id=$4`
	cmd, err := r.db(ctx).Exec(ctx, query,
		dept.Name,
		dept.Description,
		dept.IsActive,
		dept.ID,
	)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        SELECT id, name, description, is_active, created_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.IsActive,
		&dept.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context, includeInactive bool) ([]domain.Department, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        SELECT id, name, description, is_active, created_at
        FROM departments WHERE is_active OR $1 ORDER BY name`
	rows, err := r.db(ctx).Query(ctx, query, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.IsActive, &dept.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
