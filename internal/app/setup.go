package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lectern-app/lectern/db"
	"github.com/lectern-app/lectern/internal/assistant"
	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/ingest"
	"github.com/lectern-app/lectern/internal/session"
	"github.com/lectern-app/lectern/internal/store"
	"github.com/lectern-app/lectern/internal/tools"
)

// Setup creates and initializes the application. On error, everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.cleanups = append(a.cleanups, provideTracing(ctx, cfg, logger))

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.cleanups = append(a.cleanups, func() error {
		pool.Close()
		return nil
	})

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Store = store.New(pool, embedder, cfg.MaxResults, logger)
	a.Sessions = session.NewStore(cfg.MaxHistory)
	a.Loader = ingest.NewLoader(a.Store, cfg.ChunkSize, cfg.ChunkOverlap, logger)

	registry, err := provideTools(g, a.Store, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	generator, err := assistant.NewGenerator(assistant.Config{
		Genkit:      g,
		Tools:       registry,
		Logger:      logger,
		ModelName:   cfg.FullModelName(),
		ModelConfig: provideModelConfig(cfg),
		RateLimiter: rate.NewLimiter(10, 30),
	})
	if err != nil {
		return nil, err
	}

	a.Assistant, err = assistant.New(generator, a.Sessions, logger)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// provideTracing wires OTLP trace export into Genkit's tracer provider.
// An empty endpoint disables tracing; the returned cleanup flushes
// pending spans on shutdown.
func provideTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() error {
	if cfg.OTLPEndpoint == "" {
		return func() error { return nil }
	}

	// os.Setenv is not concurrent-safe, but Setup runs once at startup
	// before any goroutines exist.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() error { return nil }
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)
	logger.Debug("tracing enabled", "endpoint", cfg.OTLPEndpoint, "service", cfg.ServiceName)

	return func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracing.TracerProvider().Shutdown(shutdownCtx)
	}
}

// provideDBPool runs migrations and opens the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideModelConfig builds the provider-specific generation config.
func provideModelConfig(cfg *config.Config) any {
	if cfg.Provider == config.ProviderOllama {
		return nil
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: int32(cfg.MaxTokens),
	}
}

// provideTools registers the retrieval tools.
func provideTools(g *genkit.Genkit, s *store.Store, logger *slog.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(g)

	search, err := tools.NewSearch(s, logger)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(search); err != nil {
		return nil, err
	}

	outline, err := tools.NewOutline(s, logger)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(outline); err != nil {
		return nil, err
	}

	return registry, nil
}
