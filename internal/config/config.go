package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	ClassifierTimeoutSeconds int
	UploadTimeoutSeconds     int
	SnippetMaxChars          int

	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatioPct  int
	BreakerOpenTimeoutSecs  int
	BreakerHalfOpenMaxCalls int

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxConns       int

	AssigneeCatalogPath string

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:   mustEnv("API_PORT", "8080"),
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.events"),

		S3Bucket:        mustEnv("S3_BUCKET", ""),
		S3Region:        mustEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      mustEnv("S3_ENDPOINT", ""),
		S3PublicBaseURL: mustEnv("S3_PUBLIC_BASE_URL", ""),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: mustEnv("GEMINI_BASE_URL", ""),
		GeminiModel:   mustEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		ClassifierTimeoutSeconds: mustEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 15),
		UploadTimeoutSeconds:     mustEnvInt("UPLOAD_TIMEOUT_SECONDS", 30),
		SnippetMaxChars:          mustEnvInt("SNIPPET_MAX_CHARS", 3000),

		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatioPct:  mustEnvInt("BREAKER_FAILURE_RATIO_PCT", 60),
		BreakerOpenTimeoutSecs:  mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxConns:       mustEnvInt("API_MAX_CONNS", 256),

		AssigneeCatalogPath: mustEnv("ASSIGNEE_CATALOG_PATH", ""),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
