// Command extraction-demo wires the engine together against Postgres and
// whichever AI providers have API keys configured, ingests a seed URL, and
// runs one extraction query against the cached corpus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	extraction "github.com/lueurxax/extraction-engine"
	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/config"
	"github.com/lueurxax/extraction-engine/ingest"
	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/observability"
	"github.com/lueurxax/extraction-engine/store/postgres"
	"github.com/lueurxax/extraction-engine/validator"
)

func main() {
	seedURL := flag.String("seed", "", "URL to ingest before extracting")
	query := flag.String("query", "", "extraction query to run against the cached corpus")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	pageStore, err := postgres.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	registry := buildRegistry(cfg, &logger)

	idx, err := extraction.New(pageStore, registry, extraction.Options{Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct engine")
	}

	healthServer := observability.NewServer(pageStore.Pool, cfg.HealthPort, &logger)

	go func() {
		logger.Info().Int("port", cfg.HealthPort).Msg("starting health server")

		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("health server error")
		}
	}()

	if *seedURL != "" {
		ingestor := ingest.NewValidatedIngestor(ingest.NewHTTPIngestor("extraction-demo/1.0", &logger), validator.New(), &logger)

		discoverCfg := model.NewDiscoverConfig(*seedURL).
			WithLimit(cfg.DiscoverLimit).
			WithMaxDepth(cfg.DiscoverMaxDepth)

		ingestorCfg := model.IngestorConfig{
			Concurrency:   cfg.IngestConcurrency,
			SkipUnchanged: cfg.SkipUnchangedPages,
		}

		result, err := idx.Ingest(ctx, discoverCfg, ingestor, ingestorCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("ingest failed")
		}

		observability.ObserveIngestResult(result.PagesCrawled, result.PagesSummarized, result.PagesSkipped)
		logger.Info().
			Int("crawled", result.PagesCrawled).
			Int("summarized", result.PagesSummarized).
			Int("skipped", result.PagesSkipped).
			Msg("ingest complete")
	}

	if *query != "" {
		extractions, err := idx.Extract(ctx, *query, model.QueryFilter{}, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("extract failed")
		}

		for i, ext := range extractions {
			fmt.Printf("--- extraction %d (%s) ---\n%s\n", i, ext.Grade, ext.Content)

			for _, claim := range ext.Claims {
				fmt.Printf("  claim [%s]: %s\n", claim.Grounding, claim.Statement)
			}

			for _, gap := range ext.Gaps {
				fmt.Printf("  gap: %s (%q)\n", gap.Field, gap.Query)
			}
		}
	}

	logger.Info().Msg("extraction-demo stopped")
}

func buildRegistry(cfg *config.Config, logger *zerolog.Logger) *ai.Registry {
	registry := ai.NewRegistry(cfg.EmbeddingDims, logger)
	breakerCfg := ai.DefaultCircuitBreakerConfig()

	if cfg.AnthropicAPIKey != "" {
		registry.Register(ai.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.CompletionModel, 1), breakerCfg)
	}

	if cfg.OpenAIAPIKey != "" {
		registry.Register(ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.CompletionModel, 1), breakerCfg)
	}

	if cfg.GoogleAPIKey != "" {
		if provider, err := ai.NewGoogleProvider(context.Background(), cfg.GoogleAPIKey, cfg.CompletionModel, 1); err != nil {
			logger.Warn().Err(err).Msg("failed to construct google provider, skipping")
		} else {
			registry.Register(provider, breakerCfg)
		}
	}

	return registry
}
