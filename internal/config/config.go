package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. It is built once and injected
// explicitly; nothing reads the environment after Load returns.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Data layout: <DATA_DIR>/<dataset>/{train,test}.jsonl
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// Backend selection
	BackendProvider string `env:"BACKEND_PROVIDER" envDefault:"openai"` // "openai" (hosted API) or "local" (Ollama-style server)
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel  string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	LocalURL        string `env:"LOCAL_MODEL_URL" envDefault:"http://localhost:11434"`
	LocalModel      string `env:"LOCAL_MODEL" envDefault:"llama3.1"`

	// Generation parameters
	ContextTokens int     `env:"CONTEXT_TOKENS" envDefault:"4096"`
	MaxNewTokens  int     `env:"MAX_NEW_TOKENS" envDefault:"256"`
	Temperature   float64 `env:"TEMPERATURE" envDefault:"0.1"`

	// Dispatch policy
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"4"`
	RetryBase       time.Duration `env:"RETRY_BASE" envDefault:"500ms"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"60s"`
	Concurrency     int           `env:"CONCURRENCY" envDefault:"4"` // remote backend only; local dispatch stays sequential

	// Result cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"file"` // "file", "redis", "postgres", or "none"
	CacheDir      string `env:"CACHE_DIR" envDefault:"results"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	DBURL         string `env:"DB_URL"`

	// External scoring collaborator
	ScorerURL string `env:"SCORER_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
