// Package ingest implements the Ingestor trait and its concrete
// content-acquisition strategies (plain HTTP, RSS/Atom feeds, pre-fetched
// newsletter bodies), plus the ValidatedIngestor decorator that enforces
// the SSRF policy around any of them.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/validator"
)

// ErrDiscoveryFailed wraps a Discover-step failure.
var ErrDiscoveryFailed = errors.New("ingest: discovery failed")

// Ingestor is the engine's content-acquisition boundary. Discover performs
// source-specific crawling/listing; FetchSpecific fetches known URLs
// directly. Implementations decide their own retry and timeout policy.
type Ingestor interface {
	Discover(ctx context.Context, config model.DiscoverConfig) ([]model.RawPage, error)
	FetchSpecific(ctx context.Context, urls []string) ([]model.RawPage, error)
}

// FetchOne is a convenience wrapper around FetchSpecific for a single URL.
func FetchOne(ctx context.Context, ingestor Ingestor, url string) (model.RawPage, error) {
	pages, err := ingestor.FetchSpecific(ctx, []string{url})
	if err != nil {
		return model.RawPage{}, err
	}

	if len(pages) == 0 {
		return model.RawPage{}, fmt.Errorf("ingest: fetch %q: %w", url, ErrDiscoveryFailed)
	}

	return pages[0], nil
}

// ValidatedIngestor wraps an Ingestor, validating the starting URL with DNS
// resolution before delegating, then re-validating every returned page's
// URL (a post-redirect defense: the inner ingestor may have followed a
// redirect into blocked address space) and silently dropping any page whose
// URL fails validation.
type ValidatedIngestor struct {
	inner     Ingestor
	validator *validator.Validator
	logger    *zerolog.Logger
}

// NewValidatedIngestor wraps inner with v's SSRF policy.
func NewValidatedIngestor(inner Ingestor, v *validator.Validator, logger *zerolog.Logger) *ValidatedIngestor {
	return &ValidatedIngestor{inner: inner, validator: v, logger: logger}
}

// Discover validates config.URL before delegating, then filters the result.
func (vi *ValidatedIngestor) Discover(ctx context.Context, config model.DiscoverConfig) ([]model.RawPage, error) {
	if err := vi.validator.ValidateWithDNS(ctx, config.URL); err != nil {
		return nil, fmt.Errorf("ingest: validate discover url: %w", err)
	}

	pages, err := vi.inner.Discover(ctx, config)
	if err != nil {
		return nil, err
	}

	return vi.filterValid(ctx, pages), nil
}

// FetchSpecific validates every URL up front, fetches only the survivors,
// then re-validates each returned page (redirect defense) before returning.
func (vi *ValidatedIngestor) FetchSpecific(ctx context.Context, urls []string) ([]model.RawPage, error) {
	valid := make([]string, 0, len(urls))

	for _, u := range urls {
		if err := vi.validator.ValidateWithDNS(ctx, u); err != nil {
			if vi.logger != nil {
				vi.logger.Warn().Err(err).Str("url", u).Msg("dropping url that failed ssrf validation")
			}

			continue
		}

		valid = append(valid, u)
	}

	if len(valid) == 0 {
		return nil, nil
	}

	pages, err := vi.inner.FetchSpecific(ctx, valid)
	if err != nil {
		return nil, err
	}

	return vi.filterValid(ctx, pages), nil
}

func (vi *ValidatedIngestor) filterValid(ctx context.Context, pages []model.RawPage) []model.RawPage {
	kept := make([]model.RawPage, 0, len(pages))

	for _, p := range pages {
		if err := vi.validator.ValidateWithDNS(ctx, p.URL); err != nil {
			if vi.logger != nil {
				vi.logger.Warn().Err(err).Str("url", p.URL).Msg("dropping page that failed post-fetch ssrf validation")
			}

			continue
		}

		kept = append(kept, p)
	}

	return kept
}

var _ Ingestor = (*ValidatedIngestor)(nil)
