package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/lueurxax/extraction-engine/model"
)

// GetSummary implements store.SummaryCache. It returns (summary, false, nil)
// both when no row exists and when the row's content_hash doesn't match —
// either way, the caller must treat the summary as a cache miss.
func (s *Store) GetSummary(ctx context.Context, url, contentHash string) (model.Summary, bool, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT url, site_url, text, signals, language, prompt_hash, content_hash, created_at, embedding
		FROM summaries WHERE url = $1 AND content_hash = $2
	`, url, contentHash)

	summary, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Summary{}, false, nil
	}

	if err != nil {
		return model.Summary{}, false, fmt.Errorf("get summary: %w", err)
	}

	return summary, true, nil
}

// StoreSummary implements store.SummaryCache as an idempotent upsert keyed
// by (url, content_hash).
func (s *Store) StoreSummary(ctx context.Context, summary model.Summary) error {
	signalsJSON, err := json.Marshal(summary.Signals)
	if err != nil {
		return fmt.Errorf("marshal summary signals: %w", err)
	}

	var embedding interface{}
	if len(summary.Embedding) > 0 {
		embedding = pgvector.NewVector(summary.Embedding)
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO summaries (url, site_url, text, signals, language, prompt_hash, content_hash, created_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url, content_hash) DO UPDATE SET
			site_url = EXCLUDED.site_url,
			text = EXCLUDED.text,
			signals = EXCLUDED.signals,
			language = EXCLUDED.language,
			prompt_hash = EXCLUDED.prompt_hash,
			created_at = EXCLUDED.created_at,
			embedding = EXCLUDED.embedding
	`, summary.URL, summary.SiteURL, sanitizeUTF8(summary.Text), signalsJSON, toText(summary.Language),
		summary.PromptHash, summary.ContentHash, toTimestamptz(summary.CreatedAt), embedding)
	if err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	return nil
}

// GetSummariesForSite implements store.SummaryCache.
func (s *Store) GetSummariesForSite(ctx context.Context, siteURL string) ([]model.Summary, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT url, site_url, text, signals, language, prompt_hash, content_hash, created_at, embedding
		FROM summaries WHERE site_url = $1
	`, siteURL)
	if err != nil {
		return nil, fmt.Errorf("get summaries for site: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// GetSummaries implements store.SummaryCache, applying the QueryFilter as a
// site-url-prefix OR clause and a language IN clause.
func (s *Store) GetSummaries(ctx context.Context, filter model.QueryFilter) ([]model.Summary, error) {
	query := `
		SELECT url, site_url, text, signals, language, prompt_hash, content_hash, created_at, embedding
		FROM summaries WHERE 1=1
	`

	var args []interface{}

	if len(filter.SiteURLPrefixes) > 0 {
		clauses := make([]string, 0, len(filter.SiteURLPrefixes))

		for _, prefix := range filter.SiteURLPrefixes {
			args = append(args, prefix+"%")
			clauses = append(clauses, fmt.Sprintf("site_url LIKE $%d", len(args)))
		}

		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}

	if len(filter.Languages) > 0 {
		args = append(args, filter.Languages)
		query += fmt.Sprintf(" AND language = ANY($%d)", len(args))
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get summaries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// DeleteSummary implements store.SummaryCache.
func (s *Store) DeleteSummary(ctx context.Context, url, contentHash string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM summaries WHERE url = $1 AND content_hash = $2`, url, contentHash); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}

	return nil
}

// InvalidateStaleSummaries implements store.SummaryCache.
func (s *Store) InvalidateStaleSummaries(ctx context.Context, currentPromptHash string) (int, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM summaries WHERE prompt_hash <> $1`, currentPromptHash)
	if err != nil {
		return 0, fmt.Errorf("invalidate stale summaries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanSummary(row rowScanner) (model.Summary, error) {
	var (
		summary    model.Summary
		signalsRaw []byte
		language   pgtype.Text
		createdAt  pgtype.Timestamptz
		embedding  pgvector.Vector
	)

	if err := row.Scan(&summary.URL, &summary.SiteURL, &summary.Text, &signalsRaw, &language,
		&summary.PromptHash, &summary.ContentHash, &createdAt, &embedding); err != nil {
		return model.Summary{}, err
	}

	summary.Language = fromText(language)
	summary.CreatedAt = fromTimestamptz(createdAt)
	summary.Embedding = embedding.Slice()

	if len(signalsRaw) > 0 {
		_ = json.Unmarshal(signalsRaw, &summary.Signals)
	}

	return summary, nil
}

func scanSummaries(rows pgx.Rows) ([]model.Summary, error) {
	var summaries []model.Summary

	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}
