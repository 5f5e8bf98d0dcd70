package postgres

import (
	"context"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName, phone, company, jobTitle string) (*domain.User, error)
}

type UserRepoImpl struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *UserRepoImpl { return &UserRepoImpl{pool: pool} }

const userCols = `id, email, full_name, phone_number, company_name, job_title, role, created_at`

func (r *UserRepoImpl) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PhoneNumber, &u.CompanyName, &u.JobTitle, &u.Role, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PhoneNumber, &u.CompanyName, &u.JobTitle, &u.Role, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepoImpl) Search(ctx context.Context, query string, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	const q = `SELECT ` + userCols + ` FROM users
  WHERE full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
  ORDER BY full_name LIMIT $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.PhoneNumber, &u.CompanyName, &u.JobTitle, &u.Role, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepoImpl) UpdateProfile(ctx context.Context, id int64, fullName, phone, company, jobTitle string) (*domain.User, error) {
	const q = `UPDATE users SET full_name=$2, phone_number=$3, company_name=$4, job_title=$5
  WHERE id=$1 RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, id, fullName, phone, company, jobTitle).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PhoneNumber, &u.CompanyName, &u.JobTitle, &u.Role, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepo = (*UserRepoImpl)(nil)
