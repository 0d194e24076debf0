package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/KseniyaZaitseva1/bloggpt/db"
	"github.com/KseniyaZaitseva1/bloggpt/internal/config"
	"github.com/KseniyaZaitseva1/bloggpt/internal/metrics"
	"github.com/KseniyaZaitseva1/bloggpt/internal/pipeline"
	"github.com/KseniyaZaitseva1/bloggpt/internal/repository"
	"github.com/KseniyaZaitseva1/bloggpt/pkg/llm"
	"github.com/KseniyaZaitseva1/bloggpt/pkg/news"

	"github.com/redis/go-redis/v9"
)

// App holds everything built from one Config. Close releases the optional
// Redis and Postgres connections.
type App struct {
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
	Usage    *repository.UsageRepository

	redis *redis.Client
	db    *sql.DB
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Metrics: metrics.New()}

	var jobs pipeline.JobStore
	if cfg.RedisURL != "" {
		client, err := db.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to Redis: %w", err)
		}
		a.redis = client
		jobs = repository.NewRedisJobRepository(client, cfg.JobTTL)
		slog.Info("using redis job store")
	} else {
		jobs = repository.NewMemoryJobRepository(cfg.JobTTL)
	}

	opts := pipeline.Options{JobTimeout: cfg.JobTimeout, Metrics: a.Metrics}
	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("error connecting to DB: %w", err)
		}
		a.db = conn
		a.Usage = repository.NewUsageRepository(conn)
		opts.Usage = a.Usage
	}

	newsClient := news.NewNewsAPIClient(cfg.NewsAPIKey, cfg.NewsAPIURL, cfg.NewsLanguage, cfg.HTTPTimeout)
	fetcher := news.NewFetcher(newsClient, cfg.NewsPageSize, cfg.NewsMaxItems, cfg.NewsIncludeDescription)

	openAIClient := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout)
	generator := llm.NewGenerator(openAIClient, GeneratorConfig(cfg))

	a.Pipeline = pipeline.New(fetcher, generator, jobs, opts)
	return a, nil
}

func GeneratorConfig(cfg *config.Config) llm.GeneratorConfig {
	g := llm.DefaultGeneratorConfig()
	g.Combined = cfg.Layout == config.LayoutCombined
	g.BodyStrategy = llm.BodyStrategy(cfg.BodyStrategy)
	g.Body.MaxTokens = cfg.BodyMaxTokens
	g.BodyMinChars = cfg.BodyMinChars
	g.BodyRounds = cfg.BodyRounds
	g.IncrementTokens = cfg.BodyIncrementTokens
	g.TokenBudget = cfg.BodyTokenBudget
	g.TrimChars = cfg.BodyTrimChars
	return g
}

func (a *App) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
