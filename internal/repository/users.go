package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// CreateUser inserts u and fills in its id and creation time.
func (q *queries) CreateUser(ctx context.Context, u *model.User) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (username, email, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.Username, u.Email, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a single user or ErrNotFound.
func (q *queries) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user")
	}
	return &u, nil
}

// ListUsers returns all users ordered by username.
func (q *queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, username, email, role, created_at FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; passes, requests, registrations and waitlist
// entries go with it.
func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(tag)
}
