package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/extraction-engine/model"
)

// GetPage implements store.PageCache.
func (s *Store) GetPage(ctx context.Context, url string) (model.CachedPage, bool, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT url, site_url, content, title, content_type, content_hash, metadata, fetched_at
		FROM pages WHERE url = $1
	`, url)

	page, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CachedPage{}, false, nil
	}

	if err != nil {
		return model.CachedPage{}, false, fmt.Errorf("get page: %w", err)
	}

	return page, true, nil
}

// StorePage implements store.PageCache as an idempotent upsert.
func (s *Store) StorePage(ctx context.Context, page model.CachedPage) error {
	metadataJSON, err := json.Marshal(page.Metadata)
	if err != nil {
		return fmt.Errorf("marshal page metadata: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO pages (url, site_url, content, title, content_type, content_hash, metadata, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			site_url = EXCLUDED.site_url,
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			content_type = EXCLUDED.content_type,
			content_hash = EXCLUDED.content_hash,
			metadata = EXCLUDED.metadata,
			fetched_at = EXCLUDED.fetched_at
	`, page.URL, page.SiteURL, sanitizeUTF8(page.Content), toText(page.Title), toText(page.ContentType),
		page.ContentHash, metadataJSON, toTimestamptz(page.FetchedAt))
	if err != nil {
		return fmt.Errorf("store page: %w", err)
	}

	return nil
}

// GetPages implements store.PageCache as a single batched query.
func (s *Store) GetPages(ctx context.Context, urls []string) ([]model.CachedPage, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT url, site_url, content, title, content_type, content_hash, metadata, fetched_at
		FROM pages WHERE url = ANY($1)
	`, urls)
	if err != nil {
		return nil, fmt.Errorf("get pages: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// GetPagesForSite implements store.PageCache.
func (s *Store) GetPagesForSite(ctx context.Context, siteURL string) ([]model.CachedPage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT url, site_url, content, title, content_type, content_hash, metadata, fetched_at
		FROM pages WHERE site_url = $1
	`, siteURL)
	if err != nil {
		return nil, fmt.Errorf("get pages for site: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// DeletePage implements store.PageCache.
func (s *Store) DeletePage(ctx context.Context, url string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM pages WHERE url = $1`, url); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	return nil
}

// CountPages implements store.PageCache.
func (s *Store) CountPages(ctx context.Context, siteURL string) (int, error) {
	var count int

	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM pages WHERE site_url = $1`, siteURL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPage(row rowScanner) (model.CachedPage, error) {
	var (
		page        model.CachedPage
		title       pgtype.Text
		contentType pgtype.Text
		metadata    []byte
		fetchedAt   pgtype.Timestamptz
	)

	if err := row.Scan(&page.URL, &page.SiteURL, &page.Content, &title, &contentType,
		&page.ContentHash, &metadata, &fetchedAt); err != nil {
		return model.CachedPage{}, err
	}

	page.Title = fromText(title)
	page.ContentType = fromText(contentType)
	page.FetchedAt = fromTimestamptz(fetchedAt)

	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &page.Metadata)
	}

	return page, nil
}

func scanPages(rows pgx.Rows) ([]model.CachedPage, error) {
	var pages []model.CachedPage

	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}

		pages = append(pages, page)
	}

	return pages, rows.Err()
}
