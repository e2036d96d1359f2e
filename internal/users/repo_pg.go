package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, email, name, picture_url, last_login_at, created_at, updated_at`

func (r *PGRepo) UpsertLogin(ctx context.Context, user User, at time.Time) (User, error) {
	const query = `
INSERT INTO users (id, email, name, picture_url, last_login_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5, $5)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = COALESCE(EXCLUDED.name, users.name),
  picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
  last_login_at = EXCLUDED.last_login_at,
  updated_at = EXCLUDED.updated_at
RETURNING ` + selectColumns
	row := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.Name),
		nullableString(user.PictureURL),
		at,
	)
	return scanUser(row)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func scanUser(row *sql.Row) (User, error) {
	var (
		user       User
		name       sql.NullString
		pictureURL sql.NullString
		lastLogin  sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.Email, &name, &pictureURL, &lastLogin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	user.Name = name.String
	user.PictureURL = pictureURL.String
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
