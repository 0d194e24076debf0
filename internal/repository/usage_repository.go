package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/KseniyaZaitseva1/bloggpt/internal/model"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// RecordUsage adds to the per-day counters for one upstream API.
func (r *UsageRepository) RecordUsage(ctx context.Context, apiName string, requests int, tokens int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_usage(api_name, usage_date, request_count, token_count)
		VALUES($1, CURRENT_DATE, $2, $3)
		ON CONFLICT (api_name, usage_date) DO UPDATE
		SET request_count = api_usage.request_count + EXCLUDED.request_count,
			token_count = api_usage.token_count + EXCLUDED.token_count
	`, apiName, requests, tokens)
	return err
}

func (r *UsageRepository) GetUsage(ctx context.Context, since time.Time) ([]model.ApiUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT api_name, usage_date, request_count, token_count
		FROM api_usage
		WHERE usage_date >= $1
		ORDER BY usage_date DESC, api_name ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []model.ApiUsage
	for rows.Next() {
		var u model.ApiUsage
		err := rows.Scan(&u.ApiName, &u.UsageDate, &u.RequestCount, &u.TokenCount)
		if err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return usage, nil
}
