package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"basegraph.app/autoreply/core/db"
)

// PlaceholderAppSecret is the value shipped in example env files. Treated the
// same as an unset secret: signature verification is disabled.
const PlaceholderAppSecret = "your_app_secret"

// geminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint, used when only
// GEMINI_API_KEY is provided.
const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// geminiDefaultModel is used when requests go to Gemini's OpenAI-compatible
// endpoint and LLM_MODEL is unset.
const geminiDefaultModel = "gemini-2.0-flash"

// MaxContextWindow bounds CONTEXT_WINDOW_SIZE. History is fetched with a
// 32-bit LIMIT and folded into a single prompt.
const MaxContextWindow = 100

type Config struct {
	OTel         OTelConfig
	Graph        GraphConfig
	Webhook      WebhookConfig
	LLM          LLMConfig
	Conversation ConversationConfig
	Pipeline     PipelineConfig
	Env          string
	Port         string
	DB           db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	Protocol       string // "http" or "grpc"
	ServiceName    string
	ServiceVersion string
}

// GraphConfig holds Meta Graph API access for the account the bot replies as.
type GraphConfig struct {
	AccessToken string
	UserID      string // IG user id, used for self-loop detection on DMs
	Username    string // IG username, used for self-loop detection on comments
	BaseURL     string
	Version     string
	Timeout     time.Duration
}

type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
}

type LLMConfig struct {
	Provider  string // "openai", "anthropic" or "gemini"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

type ConversationConfig struct {
	ContextWindow int
}

type PipelineConfig struct {
	Mode            string // "inline" or "queue"
	MaxConcurrency  int
	DedupBackend    string // "memory" or "redis"
	DedupTTL        time.Duration
	RedisURL        string
	RedisStream     string
	RedisGroup      string
	RedisDLQStream  string
	RedisConsumer   string
	TraceHeaderName string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

const (
	PipelineModeInline = "inline"
	PipelineModeQueue  = "queue"

	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the queue worker
//
// Falls back to .env if service-specific file doesn't exist.
//
// Missing credentials are not an error: the affected feature degrades and is
// reported by Warnings. Only values that cannot be parsed fail the load.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	p := &parser{}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8000"),
		DB: db.Config{
			DSN:         getEnv("DATABASE_URL", ""),
			MaxConns:    p.int32("DB_MAX_CONNS", 10),
			MinConns:    p.int32("DB_MIN_CONNS", 2),
			AutoMigrate: p.bool("DB_AUTO_MIGRATE", true),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Protocol:       getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "http"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "autoreply"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Graph: GraphConfig{
			AccessToken: getEnv("PAGE_ACCESS_TOKEN", ""),
			UserID:      getEnv("IG_USER_ID", ""),
			Username:    getEnv("IG_USERNAME", ""),
			BaseURL:     getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com"),
			Version:     getEnv("GRAPH_API_VERSION", "v22.0"),
			Timeout:     time.Duration(p.int("GRAPH_API_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Webhook: WebhookConfig{
			VerifyToken: getEnv("VERIFY_TOKEN", ""),
			AppSecret:   getEnv("APP_SECRET", ""),
		},
		LLM: loadLLMConfig(p),
		Conversation: ConversationConfig{
			ContextWindow: p.int("CONTEXT_WINDOW_SIZE", 5),
		},
		Pipeline: PipelineConfig{
			Mode:            getEnv("PIPELINE_MODE", PipelineModeInline),
			MaxConcurrency:  p.int("PIPELINE_MAX_CONCURRENCY", 4),
			DedupBackend:    getEnv("DEDUP_BACKEND", DedupBackendMemory),
			DedupTTL:        time.Duration(p.int("DEDUP_TTL_HOURS", 72)) * time.Hour,
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:     getEnv("REDIS_STREAM", "autoreply_events"),
			RedisGroup:      getEnv("REDIS_CONSUMER_GROUP", "autoreply_group"),
			RedisDLQStream:  getEnv("REDIS_DLQ_STREAM", "autoreply_events_dlq"),
			RedisConsumer:   getEnv("REDIS_CONSUMER_NAME", string(serviceType)),
			TraceHeaderName: getEnv("TRACE_HEADER_NAME", "X-Trace-Id"),
		},
	}

	if p.err != nil {
		return Config{}, p.err
	}

	if cfg.Conversation.ContextWindow < 0 {
		return Config{}, fmt.Errorf("CONTEXT_WINDOW_SIZE must not be negative")
	}
	if cfg.Conversation.ContextWindow > MaxContextWindow {
		return Config{}, fmt.Errorf("CONTEXT_WINDOW_SIZE must be at most %d, got %d", MaxContextWindow, cfg.Conversation.ContextWindow)
	}

	switch cfg.Pipeline.Mode {
	case PipelineModeInline, PipelineModeQueue:
	default:
		return Config{}, fmt.Errorf("PIPELINE_MODE must be %q or %q, got %q", PipelineModeInline, PipelineModeQueue, cfg.Pipeline.Mode)
	}

	switch cfg.Pipeline.DedupBackend {
	case DedupBackendMemory, DedupBackendRedis:
	default:
		return Config{}, fmt.Errorf("DEDUP_BACKEND must be %q or %q, got %q", DedupBackendMemory, DedupBackendRedis, cfg.Pipeline.DedupBackend)
	}

	return cfg, nil
}

func loadLLMConfig(p *parser) LLMConfig {
	cfg := LLMConfig{
		Provider:  getEnv("LLM_PROVIDER", "openai"),
		APIKey:    getEnv("LLM_API_KEY", ""),
		BaseURL:   getEnv("LLM_BASE_URL", ""),
		Model:     getEnv("LLM_MODEL", ""),
		MaxTokens: p.int("LLM_MAX_TOKENS", 256),
	}

	// GEMINI_API_KEY is what existing deployments set. With the openai
	// provider it is routed through Gemini's OpenAI-compatible endpoint.
	if cfg.APIKey == "" {
		if key := getEnv("GEMINI_API_KEY", ""); key != "" {
			cfg.APIKey = key
			if cfg.Provider == "openai" && cfg.BaseURL == "" {
				cfg.BaseURL = geminiOpenAIBaseURL
			}
		}
	}

	// An empty model lets each adapter pick its provider's default. The
	// OpenAI adapter's default is not served by the Gemini endpoint.
	if cfg.Model == "" && cfg.BaseURL == geminiOpenAIBaseURL {
		cfg.Model = geminiDefaultModel
	}

	return cfg
}

// Warnings lists features that are disabled because of missing configuration.
// cmd/server logs each one at startup.
func (c Config) Warnings() []string {
	var warnings []string
	if !c.Webhook.SignatureEnabled() {
		warnings = append(warnings, "APP_SECRET not set: webhook signature verification is disabled")
	}
	if c.Webhook.VerifyToken == "" {
		warnings = append(warnings, "VERIFY_TOKEN not set: webhook subscription verification will always fail")
	}
	if !c.Graph.Enabled() {
		warnings = append(warnings, "PAGE_ACCESS_TOKEN not set: replies cannot be sent")
	}
	if c.Graph.UserID == "" && c.Graph.Username == "" {
		warnings = append(warnings, "IG_USER_ID and IG_USERNAME not set: self-loop detection is disabled")
	}
	if !c.LLM.Enabled() {
		warnings = append(warnings, "LLM_API_KEY not set: reply generation will fail")
	}
	if !c.DB.Enabled() {
		warnings = append(warnings, "DATABASE_URL not set: conversations are kept in memory only")
	}
	return warnings
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c GraphConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SignatureEnabled reports whether payload signatures are checked.
func (c WebhookConfig) SignatureEnabled() bool {
	return c.AppSecret != "" && c.AppSecret != PlaceholderAppSecret
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c PipelineConfig) QueueEnabled() bool {
	return c.Mode == PipelineModeQueue
}

func (c PipelineConfig) NeedsRedis() bool {
	return c.QueueEnabled() || c.DedupBackend == DedupBackendRedis
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// parser collects the first parse error so Load can report it after building
// the whole config.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parsing %s=%q: %w", key, value, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return i
}

func (p *parser) int32(key string, fallback int32) int32 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	i, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return int32(i)
}

func (p *parser) bool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return b
}
