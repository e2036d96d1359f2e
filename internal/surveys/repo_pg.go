package surveys

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pulsescore-backend/internal/scoring"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, survey Survey) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertSurvey = `
INSERT INTO surveys (id, owner_id, organization_name, title, config_version, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insertSurvey,
		survey.ID,
		survey.OwnerID,
		survey.OrganizationName,
		survey.Title,
		survey.ConfigVersion,
		survey.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}

	const insertQuestion = `
INSERT INTO survey_questions (survey_id, id, position, text, response_type, theme, weight)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, q := range survey.Questions {
		if _, err := tx.ExecContext(ctx, insertQuestion,
			survey.ID,
			q.ID,
			i,
			q.Text,
			string(q.ResponseType),
			q.Theme,
			q.EffectiveWeight(),
		); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

func (r *PGRepo) Get(ctx context.Context, id string) (Survey, error) {
	const query = `
SELECT id, owner_id, organization_name, title, config_version, created_at
FROM surveys
WHERE id = $1`
	var s Survey
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.OwnerID,
		&s.OrganizationName,
		&s.Title,
		&s.ConfigVersion,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Survey{}, ErrNotFound
		}
		return Survey{}, err
	}
	questions, err := r.questions(ctx, id)
	if err != nil {
		return Survey{}, err
	}
	s.Questions = questions
	return s, nil
}

func (r *PGRepo) questions(ctx context.Context, surveyID string) ([]scoring.Question, error) {
	const query = `
SELECT id, text, response_type, theme, weight
FROM survey_questions
WHERE survey_id = $1
ORDER BY position ASC`
	rows, err := r.DB.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.Question
	for rows.Next() {
		var q scoring.Question
		var responseType string
		if err := rows.Scan(&q.ID, &q.Text, &responseType, &q.Theme, &q.Weight); err != nil {
			return nil, err
		}
		q.ResponseType = scoring.ResponseType(responseType)
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListByOwner returns survey headers without questions.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Survey, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, owner_id, organization_name, title, config_version, created_at
FROM surveys
WHERE owner_id = $1
ORDER BY created_at DESC, id ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Survey
	for rows.Next() {
		var s Survey
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.OrganizationName, &s.Title, &s.ConfigVersion, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) AddSubmission(ctx context.Context, sub Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const query = `
INSERT INTO survey_submissions (id, survey_id, respondent_key, answers, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err = r.DB.ExecContext(ctx, query, sub.ID, sub.SurveyID, sub.RespondentKey, answers, sub.CreatedAt)
	return err
}

func (r *PGRepo) ListSubmissions(ctx context.Context, surveyID string) ([]Submission, error) {
	const query = `
SELECT id, survey_id, respondent_key, answers, created_at
FROM survey_submissions
WHERE survey_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var raw []byte
		if err := rows.Scan(&sub.ID, &sub.SurveyID, &sub.RespondentKey, &raw, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &sub.Answers); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountSubmissions(ctx context.Context, surveyID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM survey_submissions WHERE survey_id = $1`, surveyID).Scan(&n)
	return n, err
}

var _ Repo = (*PGRepo)(nil)
