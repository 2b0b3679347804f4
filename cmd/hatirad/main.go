package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/hatira-labs/hatira/analyzer"
	"github.com/hatira-labs/hatira/bus"
	"github.com/hatira-labs/hatira/config"
	"github.com/hatira-labs/hatira/httpapi"
	"github.com/hatira-labs/hatira/llm"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
	"github.com/hatira-labs/hatira/observability"
	"github.com/hatira-labs/hatira/pipeline"
	"github.com/hatira-labs/hatira/ratelimit"
	"github.com/hatira-labs/hatira/retention"
	"github.com/hatira-labs/hatira/security"
	"github.com/hatira-labs/hatira/shutdown"
	"github.com/hatira-labs/hatira/similarity"
)

func main() {
	configPath := flag.String("config", "hatira.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New()
	metrics := observability.NewMetrics(cfg.Server.MetricsNamespace)

	box, err := security.NewBox(cfg.Storage.EncryptionKey)
	if err != nil {
		log.Fatalf("encryption init failed: %v", err)
	}

	ctx := context.Background()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	store := memory.NewStore(backend, box, logger, memory.StoreConfig{
		Locale:   cfg.Memory.Locale,
		PageSize: cfg.Memory.PageSize,
	})
	log.Printf("storage backend: %s", cfg.Storage.Backend)

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		BaseURL:   cfg.LLM.BaseURL,
	})
	if err != nil {
		log.Fatalf("llm provider init failed: %v", err)
	}
	log.Printf("llm provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	checker := similarity.NewChecker(provider, logger)
	scorer := analyzer.New(provider, checker, logger, analyzer.Config{Locale: cfg.Memory.Locale})
	engine := retention.New(logger, retention.Config{
		MaxTopics:     cfg.Memory.MaxTopics,
		FallbackTopic: cfg.Memory.FallbackTopic,
	})
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{
		Capacity: cfg.RateLimit.Capacity,
		Window:   cfg.RateLimitWindow(),
	})
	events := bus.NewMemoryBus(bus.DefaultConfig())

	pipe := pipeline.New(store, scorer, engine, limiter, events, logger, pipeline.Config{
		Locale:     cfg.Memory.Locale,
		LLMTimeout: cfg.LLMTimeout(),
	})

	api := httpapi.New(cfg, pipe, store, checker, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.BindAddr,
		Handler: api.Router(),
	}

	coordinator := shutdown.New(cfg.ShutdownTimeout())
	coordinator.OnProgress = func(name string, phase int, d time.Duration, err error) {
		if err != nil {
			log.Printf("shutdown %s failed after %s: %v", name, d, err)
			return
		}
		log.Printf("shutdown %s done in %s", name, d)
	}
	coordinator.RegisterFunc("http", shutdown.PhaseDrain, func(ctx context.Context) error {
		if err := httpServer.Shutdown(ctx); err != nil {
			_ = httpServer.Close()
			return err
		}
		return nil
	})
	coordinator.RegisterFunc("ratelimit", shutdown.PhaseFlush, func(context.Context) error {
		return limiter.Close()
	})
	coordinator.RegisterFunc("bus", shutdown.PhaseFlush, func(context.Context) error {
		return events.Close()
	})
	coordinator.RegisterFunc("store", shutdown.PhaseClose, func(context.Context) error {
		return store.Close()
	})
	coordinator.HandleSignals()

	go func() {
		log.Printf("server listening on %s", cfg.Server.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	if err := coordinator.Wait(); err != nil {
		log.Printf("graceful shutdown incomplete: %v", err)
	}
	log.Printf("shutdown complete")
}

func openBackend(ctx context.Context, cfg *config.Config) (memory.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewInMemoryBackend(), nil
	case "bleve":
		return memory.NewBleveBackend(cfg.Storage.BlevePath)
	case "postgres":
		return memory.NewPostgresBackend(ctx, cfg.Storage.DatabaseURL)
	default:
		return nil, errors.New("unknown storage backend " + cfg.Storage.Backend)
	}
}
