package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/compass-backend/internal/model"
)

// HRUserRepository handles HR user data access.
type HRUserRepository struct {
	pool *pgxpool.Pool
}

// NewHRUserRepository creates a new HRUserRepository.
func NewHRUserRepository(pool *pgxpool.Pool) *HRUserRepository {
	return &HRUserRepository{pool: pool}
}

const hrUserColumns = `id, email, name, password_hash, role, created_at, updated_at`

// GetByID retrieves an HR user by ID.
func (r *HRUserRepository) GetByID(ctx context.Context, id int) (*model.HRUser, error) {
	u := &model.HRUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+hrUserColumns+` FROM hr_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves an HR user by their unique email.
func (r *HRUserRepository) GetByEmail(ctx context.Context, email string) (*model.HRUser, error) {
	u := &model.HRUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+hrUserColumns+` FROM hr_users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new HR user.
func (r *HRUserRepository) Create(ctx context.Context, u *model.HRUser) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO hr_users (email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// UpdatePassword replaces the password hash of an existing user.
func (r *HRUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE hr_users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	return err
}
