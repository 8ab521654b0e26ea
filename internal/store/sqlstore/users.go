package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

const userColumns = `id, email, name, is_active, is_staff, password_verifier, created_at`

type userRow struct {
	ID               int64  `db:"id"`
	Email            string `db:"email"`
	Name             string `db:"name"`
	IsActive         bool   `db:"is_active"`
	IsStaff          bool   `db:"is_staff"`
	PasswordVerifier string `db:"password_verifier"`
	CreatedAt        string `db:"created_at"`
}

func (r *userRow) toDomain() (*domain.User, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &domain.User{
		ID:               r.ID,
		Email:            r.Email,
		Name:             r.Name,
		IsActive:         r.IsActive,
		IsStaff:          r.IsStaff,
		PasswordVerifier: r.PasswordVerifier,
		CreatedAt:        created,
	}, nil
}

// CreateUser inserts user and sets its ID. A taken email yields store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := s.db.QueryRowxContext(ctx, s.q(`
		INSERT INTO users (email, name, is_active, is_staff, password_verifier, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		user.Email, user.Name, user.IsActive, user.IsStaff, user.PasswordVerifier, formatTime(user.CreatedAt),
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id); err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

// GetUserByEmail retrieves a user by exact (already normalized) email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, s.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email); err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

// UpdateUser overwrites the mutable user columns.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE users
		SET email = ?, name = ?, is_active = ?, is_staff = ?, password_verifier = ?
		WHERE id = ?`),
		user.Email, user.Name, user.IsActive, user.IsStaff, user.PasswordVerifier, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return expectRow(res)
}

// DeleteUser removes a user together with every tag, ingredient, and recipe they own.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", translate(err))
	}
	return expectRow(res)
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

// expectRow returns store.ErrNotFound when a write touched nothing.
func expectRow(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
