package postgres

import (
	"context"
	"fmt"

	"github.com/lueurxax/extraction-engine/model"
)

// KeywordSearch implements store.KeywordSearch against the generated
// search_vector column on pages, ranking with ts_rank_cd over a
// plainto_tsquery the way the teacher's research search ranks channel items.
func (s *Store) KeywordSearch(ctx context.Context, query string, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	if query == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT url, site_url, COALESCE(title, ''), ts_rank_cd(search_vector, plainto_tsquery('simple', $1)) AS score
		FROM pages
		WHERE search_vector @@ plainto_tsquery('simple', $1)
	`

	args := []interface{}{query}
	sqlQuery, args = appendSiteFilter(sqlQuery, args, filter)

	sqlQuery += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return scanPageRefs(rows)
}
