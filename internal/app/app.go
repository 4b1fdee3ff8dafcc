package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/common/llm"
	"basegraph.app/autoreply/core/config"
	"basegraph.app/autoreply/core/db"
	"basegraph.app/autoreply/internal/brain"
	"basegraph.app/autoreply/internal/dedup"
	"basegraph.app/autoreply/internal/graph"
	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/queue"
	"basegraph.app/autoreply/internal/service"
	"basegraph.app/autoreply/internal/store"
)

// App holds the components shared by cmd/server and cmd/worker.
type App struct {
	DB          *db.DB
	Redis       *redis.Client
	Services    *service.Services
	Processor   *pipeline.Processor
	EventIngest service.EventIngestService
}

// nodeIDs keeps snowflake ids unique between the two processes.
var nodeIDs = map[config.ServiceType]int64{
	config.ServiceTypeServer: 1,
	config.ServiceTypeWorker: 2,
}

// New connects backing services and wires the reply pipeline. Missing
// optional configuration degrades the affected component; see
// config.Config.Warnings.
func New(ctx context.Context, cfg config.Config, serviceType config.ServiceType) (*App, error) {
	a := &App{}

	ids, err := id.NewGenerator(nodeIDs[serviceType])
	if err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	var (
		stores   service.StoreProvider
		txRunner service.TxRunner
	)
	if cfg.DB.Enabled() {
		a.DB, err = db.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		stores = store.NewStores(a.DB.Queries(), ids)
		txRunner = service.NewTxRunner(a.DB, ids)
		slog.InfoContext(ctx, "database connected", "auto_migrate", cfg.DB.AutoMigrate)
	} else {
		memory := store.NewMemoryStores(ids)
		stores = memory
		txRunner = service.NewMemoryTxRunner(memory)
	}

	if cfg.Pipeline.NeedsRedis() {
		a.Redis, err = connectRedis(ctx, cfg.Pipeline.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)
	}

	var tracker dedup.Tracker = dedup.NewMemoryTracker()
	if cfg.Pipeline.DedupBackend == config.DedupBackendRedis {
		tracker = dedup.NewRedisTracker(a.Redis, cfg.Pipeline.DedupTTL)
	}

	var producer queue.Producer
	if serviceType == config.ServiceTypeServer && cfg.Pipeline.QueueEnabled() {
		producer = queue.NewRedisProducer(a.Redis, cfg.Pipeline.RedisStream)
	}

	graphClient := graph.New(graph.Config{
		AccessToken: cfg.Graph.AccessToken,
		BaseURL:     cfg.Graph.BaseURL,
		Version:     cfg.Graph.Version,
		Timeout:     cfg.Graph.Timeout,
	})

	generator, err := llm.NewReplyGenerator(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		generator = llm.Unavailable(err)
	} else if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating reply generator: %w", err)
	}

	a.Services = service.NewServices(stores, txRunner, producer, service.EventIngestConfig{
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
	})
	recorder := a.Services.Recorder()

	a.Processor = pipeline.NewProcessor(pipeline.Dependencies{
		Tracker:   tracker,
		History:   recorder,
		Builder:   brain.NewContextBuilder(graphClient, cfg.Conversation.ContextWindow),
		Generator: generator,
		Sender:    graphClient,
		Recorder:  recorder,
		Bot: model.BotIdentity{
			UserID:   cfg.Graph.UserID,
			Username: cfg.Graph.Username,
		},
		Window: cfg.Conversation.ContextWindow,
	})
	a.EventIngest = a.Services.EventIngest(a.Processor)

	slog.InfoContext(ctx, "pipeline configured",
		"mode", cfg.Pipeline.Mode,
		"dedup_backend", cfg.Pipeline.DedupBackend,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", generator.Model(),
		"graph_api_version", cfg.Graph.Version,
		"access_token_set", cfg.Graph.Enabled(),
		"database_configured", cfg.DB.Enabled(),
		"signature_enabled", cfg.Webhook.SignatureEnabled())

	return a, nil
}

// Close releases connections. Safe to call on a partially built App.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
