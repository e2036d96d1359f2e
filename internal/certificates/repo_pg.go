package certificates

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, cert Certificate) error {
	const query = `
INSERT INTO certificates (id, result_id, recipient_email, issued_on, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		cert.ID,
		cert.ResultID,
		cert.RecipientEmail,
		cert.IssuedOn,
		cert.Status,
		cert.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Certificate, error) {
	const query = `
SELECT id, result_id, recipient_email, issued_on, object_key, status, error_message, sent_at, created_at, updated_at
FROM certificates
WHERE id = $1`
	var (
		cert      Certificate
		objectKey sql.NullString
		errMsg    sql.NullString
		sentAt    sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&cert.ID,
		&cert.ResultID,
		&cert.RecipientEmail,
		&cert.IssuedOn,
		&objectKey,
		&cert.Status,
		&errMsg,
		&sentAt,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	cert.ObjectKey = objectKey.String
	if errMsg.Valid {
		cert.ErrorMessage = &errMsg.String
	}
	if sentAt.Valid {
		cert.SentAt = &sentAt.Time
	}
	return cert, nil
}

func (r *PGRepo) MarkSent(ctx context.Context, id, objectKey string, sentAt time.Time) error {
	const query = `
UPDATE certificates
SET status = $2, object_key = $3, sent_at = $4, error_message = NULL, updated_at = now()
WHERE id = $1`
	return r.exec(ctx, query, id, StatusSent, objectKey, sentAt)
}

func (r *PGRepo) MarkFailed(ctx context.Context, id, message string) error {
	const query = `
UPDATE certificates
SET status = $2, error_message = $3, updated_at = now()
WHERE id = $1`
	return r.exec(ctx, query, id, StatusFailed, message)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
