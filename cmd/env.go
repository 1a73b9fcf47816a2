package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/parkatlas/parkatlas/internal/extract"
	"github.com/parkatlas/parkatlas/internal/store"
	"github.com/parkatlas/parkatlas/pkg/gemini"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

func initStore(ctx context.Context) (store.Store, error) {
	policy, err := store.ParsePolicy(cfg.Store.KeyPolicy)
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "parkatlas.db"
		}
		return store.NewSQLite(dsn, policy)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, policy, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initProvider() (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.LLM.Gemini.Key == "" {
			return nil, eris.New("gemini API key is required (PARKATLAS_LLM_GEMINI_KEY)")
		}
		opts := []gemini.Option{
			gemini.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		}
		if cfg.LLM.Gemini.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.LLM.Gemini.Model))
		}
		if cfg.LLM.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.LLM.Gemini.BaseURL))
		}
		if rpm := cfg.LLM.Gemini.RequestsPerMinute; rpm > 0 {
			opts = append(opts, gemini.WithLimiter(rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)))
		}
		return gemini.NewClient(cfg.LLM.Gemini.Key, opts...), nil
	case "anthropic":
		if cfg.LLM.Anthropic.Key == "" {
			return nil, eris.New("anthropic API key is required (PARKATLAS_LLM_ANTHROPIC_KEY)")
		}
		return llm.NewAnthropicProvider(cfg.LLM.Anthropic.Key, cfg.LLM.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

func initPipeline() (*extract.Pipeline, error) {
	provider, err := initProvider()
	if err != nil {
		return nil, err
	}
	return extract.New(provider, cfg.Pricing, cfg.Pipeline.MaxMissingFields), nil
}
