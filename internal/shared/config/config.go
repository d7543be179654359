package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	// External collaborators.
	BackendBaseURL string
	InferenceURL   string
	InferencePath  string

	// Hand-off.
	ResultsPath  string
	HandoffDwell time.Duration

	// Session layer. Strategy is "owned" or "delegated"; never both.
	SessionStrategy  string
	SessionDir       string
	AuthTokenURL     string
	AuthSignupURL    string
	AuthUserinfoURL  string
	AuthClientID     string
	AuthClientSecret string

	// Storage.
	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
}

// StrategyOwned and StrategyDelegated name the two session configurations.
const (
	StrategyOwned     = "owned"
	StrategyDelegated = "delegated"
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	strategy := normalizeStrategy(getEnv("SESSION_STRATEGY", StrategyOwned))
	if strategy == StrategyDelegated && os.Getenv("AUTH_TOKEN_URL") == "" {
		log.Printf("AUTH_TOKEN_URL is required for the delegated session strategy")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:             env,

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:5000"),
		InferenceURL:   getEnv("INFERENCE_URL", "http://localhost:10000"),
		InferencePath:  getEnv("INFERENCE_PATH", "/upload"),

		ResultsPath:  getEnv("RESULTS_PATH", "/results"),
		HandoffDwell: getEnvMillis("HANDOFF_DWELL_MS", 500*time.Millisecond),

		SessionStrategy:  strategy,
		SessionDir:       getEnv("SESSION_DIR", ""),
		AuthTokenURL:     getEnv("AUTH_TOKEN_URL", ""),
		AuthSignupURL:    getEnv("AUTH_SIGNUP_URL", ""),
		AuthUserinfoURL:  getEnv("AUTH_USERINFO_URL", ""),
		AuthClientID:     getEnv("AUTH_CLIENT_ID", ""),
		AuthClientSecret: getEnv("AUTH_CLIENT_SECRET", ""),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return def
	}
	return time.Duration(parsed) * time.Millisecond
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStrategy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StrategyDelegated:
		return StrategyDelegated
	default:
		return StrategyOwned
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
