// Package app wires configuration into the concrete collaborators the
// commands run on: backend, embedder, dispatcher and result cache.
package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"clin-summ/internal/backend"
	"clin-summ/internal/cache"
	"clin-summ/internal/config"
	"clin-summ/internal/embeddings"
	"clin-summ/internal/logger"
)

// Deps holds everything a command needs. Built once per process.
type Deps struct {
	Cfg config.Config
	Log *slog.Logger

	Cache      cache.Cache
	Writer     *cache.Writer
	Backend    backend.Backend
	Embedder   embeddings.Embedder
	Dispatcher *backend.Dispatcher
}

// BuildCore loads configuration and constructs the cache; enough for
// commands that never generate (scoring reads existing results).
func BuildCore() (*Deps, error) {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	c, err := buildCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}
	return &Deps{Cfg: cfg, Log: log, Cache: c, Writer: cache.NewWriter(c)}, nil
}

// Build constructs all collaborators. Provider misconfiguration (unknown
// name, missing key) fails here, before any corpus is read or any API
// call is made.
func Build(provider string) (*Deps, error) {
	d, err := BuildCore()
	if err != nil {
		return nil, err
	}
	cfg := d.Cfg
	if provider != "" {
		cfg.BackendProvider = provider
		d.Cfg = cfg
	}

	b, emb, err := buildBackend(cfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("build backend: %w", err)
	}

	policy := backend.Policy{
		MaxRetries:  cfg.MaxRetries,
		RetryBase:   cfg.RetryBase,
		Timeout:     cfg.DispatchTimeout,
		Concurrency: cfg.Concurrency,
	}
	if cfg.BackendProvider == "local" {
		// A local model saturates its own compute; parallel dispatch only
		// adds contention.
		policy.Concurrency = 1
	}

	d.Backend = b
	d.Embedder = emb
	d.Dispatcher = backend.NewDispatcher(b, policy, d.Log)
	return d, nil
}

// DefaultModel is the configured model name for the active backend.
func (d *Deps) DefaultModel() string {
	if d.Cfg.BackendProvider == "local" {
		return d.Cfg.LocalModel
	}
	return d.Cfg.LLMModel
}

// RunConcurrency is the case fan-out width for the configured backend.
func (d *Deps) RunConcurrency() int {
	if d.Cfg.BackendProvider == "local" {
		return 1
	}
	return d.Cfg.Concurrency
}

// Close releases held connections.
func (d *Deps) Close() {
	if err := d.Cache.Close(); err != nil {
		d.Log.Warn("closing cache", "err", err)
	}
}

func buildCache(cfg config.Config) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "file":
		return cache.NewFileCache(cfg.CacheDir)
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	case "postgres":
		return cache.NewPostgres(cfg.DBURL)
	case "none":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.CacheProvider)
	}
}

func buildBackend(cfg config.Config) (backend.Backend, embeddings.Embedder, error) {
	switch cfg.BackendProvider {
	case "openai":
		b, err := backend.NewOpenAIBackend(cfg.OpenAIKey)
		if err != nil {
			return nil, nil, err
		}
		emb, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, nil, err
		}
		return b, emb, nil
	case "local":
		b := backend.NewLocalBackend(cfg.LocalURL, nil)
		emb := embeddings.NewLocalEmbedder(cfg.LocalURL, cfg.LocalModel, nil)
		return b, emb, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend provider %q", cfg.BackendProvider)
	}
}
