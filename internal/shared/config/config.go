package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pulsescore-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	LogLevel           string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	RedisURL           string
	ResultCacheTTL     time.Duration
	Env                string
	ScoringConfigPath  string
	BatchConcurrency   int
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	GeminiAPIKey       string
	MailProvider       string
	MailAPIKey         string
	MailFrom           string
	MailAPIURL         string
	CertificateQueue   string
	WorkerConcurrency  int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load applies .env files and reads configuration from the environment.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")
	return fromEnv(os.Getenv)
}

// env reads typed settings from a getenv style lookup. Malformed numbers and
// durations fall back to the default with a warning.
type env func(string) string

func fromEnv(getenv func(string) string) Config {
	e := env(getenv)
	cfg := Config{
		Port:               e.str("PORT", "8080"),
		CORSAllowOrigin:    e.list("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		LogLevel:           e.str("LOG_LEVEL", "info"),
		ObjectStoreType:    normalizeStoreType(e.str("OBJECT_STORE", "local")),
		LocalStoreDir:      e.str("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          e.str("AWS_REGION", ""),
		S3Bucket:           e.str("S3_BUCKET", ""),
		S3Prefix:           e.str("S3_PREFIX", ""),
		SSEKMSKeyID:        e.str("SSE_KMS_KEY_ID", ""),
		DatabaseURL:        e.str("DATABASE_URL", ""),
		RedisURL:           e.str("REDIS_URL", ""),
		ResultCacheTTL:     e.duration("RESULT_CACHE_TTL", 10*time.Minute),
		Env:                normalizeEnv(e.str("ENV", "dev")),
		ScoringConfigPath:  e.str("SCORING_CONFIG_PATH", ""),
		BatchConcurrency:   e.positive("SCORING_BATCH_CONCURRENCY", 4),
		LLMProvider:        normalizeLLMProvider(e.str("LLM_PROVIDER", "none")),
		LLMModel:           e.str("LLM_MODEL", ""),
		OpenAIAPIKey:       e.str("OPENAI_API_KEY", ""),
		GeminiAPIKey:       e.str("GEMINI_API_KEY", ""),
		MailProvider:       normalizeMailProvider(e.str("MAIL_PROVIDER", "log")),
		MailAPIKey:         e.str("MAIL_API_KEY", ""),
		MailFrom:           e.str("MAIL_FROM", "PulseScore <certificates@pulsescore.local>"),
		MailAPIURL:         e.str("MAIL_API_URL", "https://api.resend.com/emails"),
		CertificateQueue:   e.str("CERTIFICATE_QUEUE_URL", ""),
		WorkerConcurrency:  e.positive("WORKER_CONCURRENCY", 2),
		GoogleClientID:     e.str("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: e.str("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  e.str("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      e.str("UI_REDIRECT_URL", ""),
	}
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL", "env": cfg.Env})
	}
	return cfg
}

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e env) positive(key string, def int) int {
	raw := strings.TrimSpace(e(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		warnInvalid(key, raw, def)
		return def
	}
	return n
}

func (e env) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(e(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		warnInvalid(key, raw, def.String())
		return def
	}
	return d
}

// list splits a comma separated value, dropping blank entries.
func (e env) list(key, def string) []string {
	var out []string
	for _, part := range strings.Split(e.str(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func warnInvalid(key, raw string, def any) {
	telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw, "using": def})
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeLLMProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	default:
		return "none"
	}
}

func normalizeMailProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "resend", "http":
		return "http"
	default:
		return "log"
	}
}
