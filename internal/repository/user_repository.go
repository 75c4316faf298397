package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// UserFilter narrows user listings. A Limit of zero returns every match.
type UserFilter struct {
	Role         *domain.Role
	DepartmentID *int64
	ActiveOnly   bool
	Limit        int
	Offset       int
}

// UserRepository defines persistence access for accounts of every role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRUT(ctx context.Context, rut string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

const userColumns = `id, name, email, rut, password_hash, role_id, department_id, is_active, created_at, updated_at`

type userRepository struct {
	conn
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool, timeout time.Duration) UserRepository {
	return &userRepository{conn{pool: pool, timeout: timeout}}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        INSERT INTO users (name, email, rut, password_hash, role_id, department_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.db(ctx).QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.RUT,
		user.PasswordHash,
		user.Role,
		user.DepartmentID,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	const query = `
        UPDATE users SET name=$1, email=$2, rut=$3, password_hash=$4, role_id=$5, department_id=$6,
            is_active=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`

	err := r.db(ctx).QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.RUT,
		user.PasswordHash,
		user.Role,
		user.DepartmentID,
		user.Active,
		user.ID,
	).Scan(&user.UpdatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) GetByRUT(ctx context.Context, rut string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE rut=$1`, rut)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	clauses := []string{"1=1"}
	args := []any{}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "is_active")
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY id%s`,
		userColumns, strings.Join(clauses, " AND "), pageClause(filter.Limit, filter.Offset))
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	return scanUser(r.db(ctx).QueryRow(ctx, query, arg))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.RUT,
		&user.PasswordHash,
		&user.Role,
		&user.DepartmentID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
