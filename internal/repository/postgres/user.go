package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// UserRepository implements domain.UserRepository for PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, name, email, password_hash, avatar, role,
	created_at, updated_at, reset_token, reset_expiry
`

// Create inserts a new user; returns ErrAlreadyExists when the email is taken
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, avatar, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, key interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List retrieves a page of users, optionally filtered by a name/email search term
func (r *UserRepository) List(ctx context.Context, page, limit int, search string) ([]*domain.User, int, error) {
	where := ""
	args := []interface{}{}

	if strings.TrimSpace(search) != "" {
		args = append(args, "%"+strings.TrimSpace(search)+"%")
		where = "WHERE name ILIKE $1 OR email ILIKE $1"
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users %s`, where)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	users := []*domain.User{}
	if total == 0 {
		return users, 0, nil
	}

	args = append(args, limit)
	limitArg := len(args)
	args = append(args, (page-1)*limit)
	offsetArg := len(args)

	query := fmt.Sprintf(`
		SELECT %s FROM users %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, userColumns, where, limitArg, offsetArg)

	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update updates a user's profile fields (name, avatar, role)
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, avatar = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query, user.Name, user.Avatar, user.Role, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a user account
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// SetResetToken stores a password reset token and its expiry for the email
func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expiry time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE users SET reset_token = $1, reset_expiry = $2, updated_at = NOW() WHERE email = $3`,
		token, expiry, email,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetByResetToken retrieves the user holding an unexpired reset token
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE reset_token = $1 AND reset_expiry > NOW()`,
		userColumns,
	)
	return r.getOne(ctx, query, token)
}

// ClearResetToken invalidates the user's reset token
func (r *UserRepository) ClearResetToken(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE users SET reset_token = NULL, reset_expiry = NULL, updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}
