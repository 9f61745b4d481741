// Package users resolves accounts for request handling. Signup, login, and
// credential storage belong to the authentication collaborator; this package
// only reads the account rows the ordering flow needs.
package users

import (
	"context"
	"errors"
	"fmt"

	"campus-express/internal/domain/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) ByID(ctx context.Context, id int64) (models.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repo) ByStudentID(ctx context.Context, studentID string) (models.User, error) {
	return r.get(ctx, `WHERE student_id = $1`, studentID)
}

func (r *Repo) get(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, student_id, full_name, contact_number, email, is_staff, blacklisted
		FROM users `+where,
		arg,
	).Scan(&u.ID, &u.StudentID, &u.FullName, &u.ContactNumber, &u.Email, &u.IsStaff, &u.Blacklisted)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}
