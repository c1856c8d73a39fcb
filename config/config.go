// Package config loads the engine's runtime configuration from the
// environment (and an optional .env file or config.yaml override),
// grouped by the subsystem each setting tunes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// yamlOverridePath is the optional local-dev config file. It is loaded
// after .env and before the environment is parsed, so any variable set by
// the OS or by .env still wins.
const yamlOverridePath = "config.yaml"

// Config is the full set of settings a host application supplies when
// constructing an Index.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Storage
	PostgresDSN      string `env:"POSTGRES_DSN,required"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// AI façade
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	GoogleAPIKey    string        `env:"GOOGLE_API_KEY"`
	CompletionModel string        `env:"COMPLETION_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel  string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDims   int           `env:"EMBEDDING_DIMS" envDefault:"1536"`
	AIRequestTimeout time.Duration `env:"AI_REQUEST_TIMEOUT" envDefault:"30s"`
	AIMaxRetries    int           `env:"AI_MAX_RETRIES" envDefault:"2"`

	// Ingest
	IngestConcurrency   int           `env:"INGEST_CONCURRENCY" envDefault:"5"`
	IngestTimeout       time.Duration `env:"INGEST_TIMEOUT" envDefault:"30s"`
	DiscoverLimit       int           `env:"DISCOVER_LIMIT" envDefault:"100"`
	DiscoverMaxDepth    int           `env:"DISCOVER_MAX_DEPTH" envDefault:"2"`
	SkipUnchangedPages  bool          `env:"SKIP_UNCHANGED_PAGES" envDefault:"true"`

	// SSRF guard overrides
	AllowedSchemes   []string `env:"ALLOWED_SCHEMES" envSeparator:"," envDefault:"http,https"`
	ExtraBlockedHosts []string `env:"EXTRA_BLOCKED_HOSTS" envSeparator:","`

	// Recall
	RecallLimit             int     `env:"RECALL_LIMIT" envDefault:"50"`
	RecallHybridEnabled      bool    `env:"RECALL_HYBRID_ENABLED" envDefault:"true"`
	RecallSemanticWeight     float32 `env:"RECALL_SEMANTIC_WEIGHT" envDefault:"0.6"`
	RecallSpecificTermBoost  float32 `env:"RECALL_SPECIFIC_TERM_BOOST" envDefault:"1.5"`

	// Grounding
	GroundingStrictMode       bool `env:"GROUNDING_STRICT_MODE" envDefault:"true"`
	GroundingVerifiedThreshold int `env:"GROUNDING_VERIFIED_THRESHOLD" envDefault:"2"`

	// Gap-fill search (detective)
	SearxngEnabled bool    `env:"SEARXNG_ENABLED" envDefault:"false"`
	SearxngBaseURL string  `env:"SEARXNG_BASE_URL"`
	SearxngRateRPS float64 `env:"SEARXNG_RATE_RPS" envDefault:"1"`

	// Observability
	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load reads Config from the environment, applying .env (if present) and
// then config.yaml (if present) first; neither overrides a variable that is
// already set, so precedence from lowest to highest is
// config.yaml < .env < OS environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if err := applyYAMLOverride(yamlOverridePath); err != nil {
		return nil, fmt.Errorf("config: yaml override: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyYAMLOverride sets an OS env var for each top-level scalar key in
// path, skipping any key already set in the environment. A missing file
// is not an error.
func applyYAMLOverride(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, fmt.Sprintf("%v", value)); err != nil {
			return err
		}
	}

	return nil
}
