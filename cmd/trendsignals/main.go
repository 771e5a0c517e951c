// trendsignals - market signal trend scoring and ranking
// Collects raw signals, scores them and publishes the ranked top trends.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/api"
	"github.com/leeaandrob/trendsignals/internal/config"
	"github.com/leeaandrob/trendsignals/internal/enrichment"
	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/notify"
	"github.com/leeaandrob/trendsignals/internal/providers"
	"github.com/leeaandrob/trendsignals/internal/scheduler"
	"github.com/leeaandrob/trendsignals/internal/storage"
	"github.com/leeaandrob/trendsignals/internal/trend"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("trendsignals - Starting trend engine")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize storage
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open trend store")
	}
	defer store.Close(ctx)

	// Initialize generation cache
	var cache llm.Cache = llm.NewMemoryCache(cfg.CacheTTL)
	if cfg.RedisURL != "" {
		redisCache, err := llm.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process cache")
		} else {
			cache = redisCache
			defer redisCache.Close()
			log.Info().Msg("Redis generation cache initialized")
		}
	}

	// Initialize model tiers
	var caches []api.CacheReporter
	var local, cloud llm.Generator

	if cfg.OllamaURL != "" {
		ollama := llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		})
		cached := llm.NewCachedGenerator("local", ollama, cache, cfg.CacheTTL)
		local, caches = cached, append(caches, cached)
		log.Info().Str("model", cfg.OllamaModel).Msg("Local tier initialized")
	}

	cloudClient, err := llm.NewCloudGenerator(ctx, llm.CloudConfig{
		Provider: cfg.CloudProvider,
		APIKey:   cfg.CloudAPIKey,
		Endpoint: cfg.CloudEndpoint,
		Model:    cfg.CloudModel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Cloud tier not initialized")
	} else {
		cached := llm.NewCachedGenerator("cloud", cloudClient, cache, cfg.CacheTTL)
		cloud, caches = cached, append(caches, cached)
		log.Info().Str("provider", cfg.CloudProvider).Msg("Cloud tier initialized")
	}

	// Initialize raw signal providers
	sources := make([]trend.Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, providers.NewHTTPProvider(providers.HTTPConfig{
			Name:      feed.Name,
			URL:       feed.URL,
			RateLimit: cfg.ProviderRateLimit,
			Retries:   1,
		}))
	}
	log.Info().Int("providers", len(sources)).Msg("Signal providers initialized")

	notifier := notify.New(notify.Config{
		TelegramToken:  cfg.TelegramToken,
		TelegramChatID: cfg.TelegramChatID,
	})

	var enricher trend.Enricher
	if cfg.TavilyAPIKey != "" {
		enricher = enrichment.NewNewsLinker(enrichment.NewTavilyClient(enrichment.TavilyConfig{APIKey: cfg.TavilyAPIKey}))
		log.Info().Msg("News enrichment enabled")
	}

	pipeline := trend.NewPipeline(trend.Config{
		Sources:          sources,
		Scorer:           trend.NewScorer(cfg.ScorerConfig()),
		Local:            local,
		LocalModel:       cfg.OllamaModel,
		Cloud:            cloud,
		CloudModel:       cfg.CloudModel,
		EnableClustering: cfg.EnableClustering,
		ClusterLimit:     cfg.ClusterLimit,
		AlertThreshold:   cfg.AlertThreshold,
		Enricher:         enricher,
		Sink:             store,
		Alerter:          notifier,
	})

	// Initialize scheduler
	schedule := scheduler.Every(cfg.CollectInterval)
	if cfg.CollectCron != "" {
		schedule, err = scheduler.ParseCron(cfg.CollectCron)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid COLLECT_CRON")
		}
	}

	sched := scheduler.NewScheduler(time.Minute)
	sched.AddJob(&scheduler.Job{
		Name:       "collect-trends",
		Schedule:   schedule,
		RunOnStart: cfg.RunOnStart,
		Timeout:    5 * time.Minute,
		Handler: func(ctx context.Context) error {
			_, err := pipeline.Run(ctx, "")
			return err
		},
	})

	apiServer := api.NewServer(api.Deps{
		Store:     store,
		Runner:    pipeline,
		Scheduler: sched,
		Caches:    caches,
	}, cfg.HTTPAddr)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start all services
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	sched.Start()

	log.Info().
		Str("api", cfg.HTTPAddr).
		Str("schedule", schedule.String()).
		Msg("trendsignals engine running")

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop()
	apiServer.Shutdown(shutdownCtx)

	log.Info().Msg("trendsignals engine stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.TrendStore, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.StorePostgres:
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		log.Info().Msg("Using in-memory trend store")
		return storage.NewMemoryStore(), nil
	}
}
