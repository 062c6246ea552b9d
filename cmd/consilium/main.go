package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consilium/internal/adapters/ai"
	"consilium/internal/adapters/config"
	"consilium/internal/adapters/embeddings"
	"consilium/internal/adapters/errors/noop"
	"consilium/internal/adapters/errors/sentry"
	"consilium/internal/adapters/feeds"
	"consilium/internal/adapters/kafka"
	"consilium/internal/adapters/marketdata"
	"consilium/internal/adapters/postgres"
	"consilium/internal/adapters/redis"
	"consilium/internal/agents"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
	"consilium/internal/events"
	"consilium/internal/metrics"
	"consilium/internal/repository/memstore"
	pgrepo "consilium/internal/repository/postgres"
	"consilium/internal/workflow"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

func main() {
	ticker := flag.String("ticker", "", "ticker symbol to analyze (required)")
	dateStr := flag.String("date", time.Now().Format("2006-01-02"), "trade date (YYYY-MM-DD)")
	flag.Parse()

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "usage: consilium -ticker AAPL [-date 2026-08-21]")
		os.Exit(2)
	}

	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid date %q: %v\n", *dateStr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	if err := run(cfg, *ticker, date, log); err != nil {
		errorTracker.CaptureError(context.Background(), err, map[string]string{
			"ticker": *ticker,
		})
		errorTracker.Flush(context.Background())
		log.Fatalf("run failed: %v", err)
	}
}

func run(cfg *config.Config, ticker string, date time.Time, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Reasoning provider with rate limiting and transient-failure retry.
	limiter, err := initRateLimiter(cfg)
	if err != nil {
		return err
	}
	var provider ai.Provider = ai.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Timeout, limiter)
	provider = ai.NewRetryingProvider(provider, cfg.AI.RetryAttempts, cfg.AI.RetryBackoff)

	prompts, err := agents.NewPromptRegistry()
	if err != nil {
		return err
	}

	// Reflection memory.
	memoryService, cleanup, err := initMemory(cfg, provider, prompts)
	if err != nil {
		return err
	}
	defer cleanup()

	// Analyst context providers. Each one is optional; an analyst with
	// no provider reasons from the prompt alone.
	var market marketdata.Provider
	if cfg.ClickHouse.Host != "" {
		ch, err := marketdata.NewClickHouseProvider(marketdata.Options{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			User:     cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
			Database: cfg.ClickHouse.Database,
		})
		if err != nil {
			log.Warnf("ClickHouse unavailable, market analyst runs without candles: %v", err)
		} else {
			defer ch.Close()
			market = ch
		}
	}

	httpFeeds := feeds.NewHTTPFeeds(cfg.Feeds.NewsBaseURL, cfg.Feeds.NewsAPIKey,
		cfg.Feeds.SocialBaseURL, cfg.Feeds.FetchTimeout)

	registry, err := agents.BuildRegistry(agents.Deps{
		Provider: provider,
		Model:    cfg.AI.Model,
		Market:   market,
		News:     httpFeeds,
		Social:   httpFeeds,
		Memory:   memoryService,
		MemoryK:  cfg.Memory.K,
		Prompts:  prompts,
	})
	if err != nil {
		return err
	}

	// Progress sinks.
	var sinks []workflow.Sink
	hub := events.NewWebSocketHub()
	sinks = append(sinks, hub)
	defer hub.Close()

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()
		sinks = append(sinks, events.NewKafkaSink(producer))
	}

	if cfg.Metrics.Enabled {
		metrics.Register()
		startObservabilityServer(cfg.Metrics.Addr, hub, log)
	}

	analysts, err := parseAnalysts(cfg.Workflow.Analysts)
	if err != nil {
		return err
	}

	engine := workflow.New(registry, workflow.Config{
		MaxDebateRounds: cfg.Workflow.MaxDebateRounds,
		MaxRiskRounds:   cfg.Workflow.MaxRiskRounds,
		Analysts:        analysts,
		RetryLimit:      cfg.Workflow.RetryLimit,
		RetryBackoff:    cfg.Workflow.RetryBackoff,
	}, sinks...)
	defer engine.Close()

	state, err := engine.Run(ctx, ticker, date)
	if err != nil {
		return err
	}

	decision := state.Decision()
	fmt.Printf("\n%s %s: %s (confidence %.2f)\n", ticker, date.Format("2006-01-02"),
		decision.Action, decision.Confidence)
	fmt.Println(decision.Rationale)
	if decision.Caveat != "" {
		fmt.Println("caveat:", decision.Caveat)
	}
	return nil
}

// initRateLimiter picks the local token bucket or the Redis-backed one
// shared across replicas.
func initRateLimiter(cfg *config.Config) (ai.RateLimiter, error) {
	rpm := float64(cfg.AI.RequestsPerMinute)
	if rpm <= 0 {
		return ai.NewNoOpLimiter(), nil
	}

	switch cfg.AI.RateLimiter {
	case "redis":
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		return ai.NewRedisRateLimiter(client.Client(), ai.ProviderNameOpenAI, rpm, cfg.AI.RequestsPerMinute), nil
	case "local", "":
		return ai.NewLocalLimiter(ai.ProviderNameOpenAI, rpm, cfg.AI.RequestsPerMinute), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"unknown rate limiter %q", cfg.AI.RateLimiter)
	}
}

// initMemory wires the reflection memory: embeddings plus the pgvector
// or in-memory repository.
func initMemory(cfg *config.Config, provider ai.Provider, prompts *agents.PromptRegistry) (*memory.Service, func(), error) {
	embedder, err := embeddings.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.EmbeddingModel, cfg.AI.Timeout)
	if err != nil {
		return nil, nil, err
	}

	composer := agents.NewLessonComposer(provider, cfg.AI.Model, prompts)

	switch cfg.Memory.Backend {
	case "postgres":
		client, err := postgres.NewClient(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		repo := pgrepo.NewMemoryRepository(client.DB())
		return memory.NewService(repo, embedder, composer), func() { client.Close() }, nil
	case "memory", "":
		repo := memstore.NewMemoryRepository()
		return memory.NewService(repo, embedder, composer), func() {}, nil
	default:
		return nil, nil, errors.Wrapf(errors.ErrInvalidInput,
			"unknown memory backend %q", cfg.Memory.Backend)
	}
}

// startObservabilityServer exposes /metrics and the /ws progress stream.
func startObservabilityServer(addr string, hub *events.WebSocketHub, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/ws", hub)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Errorf("observability server stopped: %v", err)
		}
	}()
	log.Infof("Observability server listening on %s", addr)
}

func parseAnalysts(names []string) ([]analysis.AnalystKind, error) {
	kinds := make([]analysis.AnalystKind, 0, len(names))
	for _, name := range names {
		kind := analysis.AnalystKind(name)
		if !kind.Valid() {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown analyst %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Sentry error tracking enabled")
	return tracker
}
