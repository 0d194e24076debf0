package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KseniyaZaitseva1/bloggpt/internal/errs"
)

const (
	ModeSync     = "sync"
	ModeDeferred = "deferred"

	LayoutChain    = "chain"
	LayoutCombined = "combined"
)

type Config struct {
	Port        string
	FrontendURL string
	LogLevel    slog.Level

	NewsAPIKey             string
	NewsAPIURL             string
	NewsLanguage           string
	NewsPageSize           int
	NewsMaxItems           int
	NewsIncludeDescription bool
	HTTPTimeout            time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	Mode                string
	Layout              string
	BodyStrategy        string
	BodyMaxTokens       int64
	BodyMinChars        int
	BodyRounds          int
	BodyIncrementTokens int64
	BodyTokenBudget     int64
	BodyTrimChars       int

	JobTimeout time.Duration
	JobTTL     time.Duration

	RedisURL    string
	DatabaseURL string
}

// Load reads the process environment once. Callers are expected to have
// run godotenv.Load beforehand if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: os.Getenv("FRONTEND_URL"),

		NewsAPIKey:   strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		NewsAPIURL:   getEnv("NEWS_API_URL", "https://newsapi.org/v2/everything"),
		NewsLanguage: getEnv("NEWS_LANGUAGE", "en"),

		OpenAIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		Mode:         strings.ToLower(getEnv("GENERATION_MODE", ModeSync)),
		Layout:       strings.ToLower(getEnv("GENERATION_LAYOUT", LayoutChain)),
		BodyStrategy: strings.ToLower(getEnv("BODY_STRATEGY", "single")),

		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	var missing []string
	if cfg.NewsAPIKey == "" {
		missing = append(missing, "NEWS_API_KEY")
	}
	if cfg.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return nil, errs.ConfigurationError{Missing: missing}
	}

	var err error
	p := parser{}
	cfg.NewsPageSize = p.getInt("NEWS_PAGE_SIZE", 5)
	cfg.NewsMaxItems = p.getInt("NEWS_MAX_ITEMS", 3)
	cfg.NewsIncludeDescription = p.getBool("NEWS_INCLUDE_DESCRIPTION", false)
	cfg.HTTPTimeout = p.getDuration("HTTP_TIMEOUT", 10*time.Second)
	cfg.LLMTimeout = p.getDuration("LLM_TIMEOUT", 60*time.Second)
	cfg.BodyMaxTokens = int64(p.getInt("BODY_MAX_TOKENS", 1500))
	cfg.BodyMinChars = p.getInt("BODY_MIN_CHARS", 2000)
	cfg.BodyRounds = p.getInt("BODY_ROUNDS", 5)
	cfg.BodyIncrementTokens = int64(p.getInt("BODY_INCREMENT_TOKENS", 100))
	cfg.BodyTokenBudget = int64(p.getInt("BODY_TOKEN_BUDGET", 1000))
	cfg.BodyTrimChars = p.getInt("BODY_TRIM_CHARS", 0)
	cfg.JobTimeout = p.getDuration("JOB_TIMEOUT", 2*time.Minute)
	cfg.JobTTL = p.getDuration("JOB_TTL", 24*time.Hour)

	if err = cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		p.errs = append(p.errs, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(p.errs, "; "))
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSync, ModeDeferred:
	default:
		return fmt.Errorf("GENERATION_MODE must be %q or %q, got %q", ModeSync, ModeDeferred, c.Mode)
	}
	switch c.Layout {
	case LayoutChain, LayoutCombined:
	default:
		return fmt.Errorf("GENERATION_LAYOUT must be %q or %q, got %q", LayoutChain, LayoutCombined, c.Layout)
	}
	switch c.BodyStrategy {
	case "single", "paragraphs", "incremental":
	default:
		return fmt.Errorf("BODY_STRATEGY must be single, paragraphs or incremental, got %q", c.BodyStrategy)
	}
	if c.NewsPageSize < 1 || c.NewsPageSize > 100 {
		return fmt.Errorf("NEWS_PAGE_SIZE must be between 1 and 100")
	}
	if c.NewsMaxItems < 1 {
		return fmt.Errorf("NEWS_MAX_ITEMS must be positive")
	}
	if c.BodyRounds < 1 {
		return fmt.Errorf("BODY_ROUNDS must be positive")
	}
	if c.BodyIncrementTokens < 1 || c.BodyTokenBudget < 1 || c.BodyMaxTokens < 1 {
		return fmt.Errorf("body token settings must be positive")
	}
	if c.HTTPTimeout <= 0 || c.LLMTimeout <= 0 || c.JobTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parser collects every malformed value so startup reports them together.
type parser struct {
	errs []string
}

func (p *parser) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func (p *parser) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return b
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}
