package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lueurxax/extraction-engine/model"
)

// StoreEmbedding implements store.EmbeddingStore as an UPDATE of the
// embedding column of the existing pages row — a page's embedding lives
// alongside its content rather than in a separate table, since the two are
// always written and read together. A URL with no pages row is left
// without an embedding and no error is returned.
func (s *Store) StoreEmbedding(ctx context.Context, url string, vector []float32) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE pages SET embedding = $2 WHERE url = $1
	`, url, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	return nil
}

// GetEmbedding implements store.EmbeddingStore.
func (s *Store) GetEmbedding(ctx context.Context, url string) ([]float32, bool, error) {
	var embedding pgvector.Vector

	err := s.Pool.QueryRow(ctx, `SELECT embedding FROM pages WHERE url = $1 AND embedding IS NOT NULL`, url).Scan(&embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}

	return embedding.Slice(), true, nil
}

// SearchSimilar implements store.EmbeddingStore using pgvector's cosine
// distance operator (<=>), ordering by distance ascending and converting to
// a similarity score (1 - distance) the way the rest of the engine expects.
func (s *Store) SearchSimilar(ctx context.Context, vector []float32, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	query := `
		SELECT url, site_url, COALESCE(title, ''), 1 - (embedding <=> $1::vector) AS score
		FROM pages
		WHERE embedding IS NOT NULL
	`

	args := []interface{}{pgvector.NewVector(vector)}
	query, args = appendSiteFilter(query, args, filter)

	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	return scanPageRefs(rows)
}

// SearchSimilarThreshold implements store.EmbeddingStore natively, pushing
// the minimum-score filter into the query instead of over-fetching and
// filtering client-side.
func (s *Store) SearchSimilarThreshold(ctx context.Context, vector []float32, minScore float32, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	query := `
		SELECT url, site_url, COALESCE(title, ''), 1 - (embedding <=> $1::vector) AS score
		FROM pages
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) >= $2
	`

	args := []interface{}{pgvector.NewVector(vector), minScore}
	query, args = appendSiteFilter(query, args, filter)

	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search similar threshold: %w", err)
	}
	defer rows.Close()

	return scanPageRefs(rows)
}

// DeleteEmbedding implements store.EmbeddingStore.
func (s *Store) DeleteEmbedding(ctx context.Context, url string) error {
	if _, err := s.Pool.Exec(ctx, `UPDATE pages SET embedding = NULL WHERE url = $1`, url); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}

	return nil
}

// appendSiteFilter adds a site_url prefix clause to query when filter names
// any prefixes, returning the extended query and argument list.
func appendSiteFilter(query string, args []interface{}, filter model.QueryFilter) (string, []interface{}) {
	if len(filter.SiteURLPrefixes) == 0 {
		return query, args
	}

	clauses := make([]string, 0, len(filter.SiteURLPrefixes))

	for _, prefix := range filter.SiteURLPrefixes {
		args = append(args, prefix+"%")
		clauses = append(clauses, fmt.Sprintf("site_url LIKE $%d", len(args)))
	}

	query += " AND (" + joinOR(clauses) + ")"

	return query, args
}

func joinOR(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " OR " + c
	}

	return out
}

func scanPageRefs(rows pgx.Rows) ([]model.PageRef, error) {
	var refs []model.PageRef

	for rows.Next() {
		var ref model.PageRef

		if err := rows.Scan(&ref.URL, &ref.SiteURL, &ref.Title, &ref.Score); err != nil {
			return nil, fmt.Errorf("scan page ref: %w", err)
		}

		refs = append(refs, ref)
	}

	return refs, rows.Err()
}
