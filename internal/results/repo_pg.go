package results

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

type rowScanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, survey_id, organization_name, overall_score, tier, result, submission_count, excluded_count, config_version, created_at`

func (r *PGRepo) Create(ctx context.Context, result PulseResult) error {
	payload, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	const query = `
INSERT INTO pulse_results (` + selectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		result.ID,
		result.SurveyID,
		result.OrganizationName,
		result.OverallScore,
		string(result.Tier),
		payload,
		result.SubmissionCount,
		result.ExcludedCount,
		result.ConfigVersion,
		result.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (PulseResult, error) {
	query := `SELECT ` + selectColumns + ` FROM pulse_results WHERE id = $1`
	result, err := scanResult(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return PulseResult{}, ErrNotFound
	}
	return result, err
}

func (r *PGRepo) ListBySurvey(ctx context.Context, surveyID string, limit int) ([]PulseResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + selectColumns + `
FROM pulse_results
WHERE survey_id = $1
ORDER BY created_at DESC, id ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, surveyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PulseResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

func scanResult(row rowScanner) (PulseResult, error) {
	var (
		res  PulseResult
		tier string
		raw  []byte
	)
	if err := row.Scan(
		&res.ID,
		&res.SurveyID,
		&res.OrganizationName,
		&res.OverallScore,
		&tier,
		&raw,
		&res.SubmissionCount,
		&res.ExcludedCount,
		&res.ConfigVersion,
		&res.CreatedAt,
	); err != nil {
		return PulseResult{}, err
	}
	res.Tier = scoring.Tier(tier)
	if err := json.Unmarshal(raw, &res.Result); err != nil {
		return PulseResult{}, fmt.Errorf("decode result %s: %w", res.ID, err)
	}
	return res, nil
}

var _ Repo = (*PGRepo)(nil)
