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
	DatabaseURL     string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	ScoreProvider       string
	ModelStoreType      string
	ModelDir            string
	ModelKey            string
	AWSRegion           string
	S3Bucket            string
	S3Prefix            string
	SSEKMSKeyID         string
	ScoreServiceURL     string
	ScoreServiceTimeout time.Duration

	RecommendationLocale string
	RecommendationFormat string
	CopingAllowList      []string

	EventsQueueURL      string
	PredictRate         float64
	PredictBurst        int
	WorkerConcurrency   int
	WorkerVisibility    time.Duration
	FollowupMinCategory string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	jwtSecret := os.Getenv("JWT_SECRET")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if env == "production" && jwtSecret == "" {
		log.Printf("JWT_SECRET is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		Env:                  env,
		DatabaseURL:          dbURL,
		JWTSecret:            jwtSecret,
		JWTTTL:               getDuration("JWT_TTL", 7*24*time.Hour),
		BcryptCost:           getInt("BCRYPT_COST", 12),
		ScoreProvider:        normalizeScoreProvider(getEnv("SCORE_PROVIDER", "model")),
		ModelStoreType:       normalizeStoreType(getEnv("MODEL_STORE", "local")),
		ModelDir:             getEnv("MODEL_DIR", "./models"),
		ModelKey:             getEnv("MODEL_KEY", "stress_model.json"),
		AWSRegion:            getEnv("AWS_REGION", ""),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Prefix:             getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:          getEnv("SSE_KMS_KEY_ID", ""),
		ScoreServiceURL:      getEnv("SCORE_SERVICE_URL", ""),
		ScoreServiceTimeout:  getDuration("SCORE_SERVICE_TIMEOUT", 10*time.Second),
		RecommendationLocale: getEnv("RECOMMENDATION_LOCALE", "en"),
		RecommendationFormat: getEnv("RECOMMENDATION_FORMAT", "annotated"),
		CopingAllowList:      splitAndTrim(getEnv("COPING_ALLOW_LIST", "")),
		EventsQueueURL:       getEnv("EVENTS_QUEUE_URL", ""),
		PredictRate:          getFloat("PREDICT_RATE", 1),
		PredictBurst:         getInt("PREDICT_BURST", 10),
		WorkerConcurrency:    getInt("WORKER_CONCURRENCY", 4),
		WorkerVisibility:     getDuration("WORKER_VISIBILITY_TIMEOUT", time.Minute),
		FollowupMinCategory:  getEnv("FOLLOWUP_MIN_CATEGORY", "Critical"),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:    getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:        getEnv("UI_REDIRECT_URL", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
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

func normalizeScoreProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote", "http":
		return "remote"
	case "none", "off":
		return "none"
	default:
		return "model"
	}
}
