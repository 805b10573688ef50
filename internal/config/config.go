package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Market   MarketConfig
	LLM      LLMConfig
	Jobs     JobsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration. Brokers empty means Kafka is disabled.
type KafkaConfig struct {
	Brokers              []string
	DecisionTopic        string
	AnalysisRequestTopic string
	GroupID              string
}

// RedisConfig holds the optional quote-cache configuration. Addr empty means no cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MarketConfig holds market-data settings
type MarketConfig struct {
	// Indices tracked by the weekly forecast job and the indices summary endpoint.
	Indices       []string
	QuoteCacheTTL time.Duration
}

// LLMConfig holds language-model settings. The API key is read by the
// genai client itself from GEMINI_API_KEY.
type LLMConfig struct {
	Model string
}

// JobsConfig holds tunables for the batch jobs
type JobsConfig struct {
	// PnLTolerance is the absolute price difference below which a decision is
	// treated as "unchanged, likely non-trading day" and left unscored.
	PnLTolerance float64
	// SentimentScore is the fixed news-sentiment score fed to the oracle until
	// a real sentiment source is wired in.
	SentimentScore float64
	// HistoryLookbackDays is the daily-analysis price history window.
	HistoryLookbackDays int
	// ForecastLookbackDays is the weekly-forecast price history window.
	ForecastLookbackDays int
	ReconcileInterval    time.Duration
}

// Load reads configuration from the environment, with a .env file as fallback
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "trading_user"),
			Password: getEnv("DB_PASSWORD", "trading_password"),
			DBName:   getEnv("DB_NAME", "trading_agent"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvList("KAFKA_BROKERS", nil),
			DecisionTopic:        getEnv("KAFKA_DECISION_TOPIC", "decision-events"),
			AnalysisRequestTopic: getEnv("KAFKA_ANALYSIS_TOPIC", "analysis-requests"),
			GroupID:              getEnv("KAFKA_GROUP_ID", "trading-agent"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Market: MarketConfig{
			Indices:       getEnvList("MARKET_INDICES", []string{"^NSEI", "^BSESN"}),
			QuoteCacheTTL: getEnvDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		},
		LLM: LLMConfig{
			Model: getEnv("LLM_MODEL", "gemini-2.0-flash"),
		},
		Jobs: JobsConfig{
			PnLTolerance:         getEnvFloat("PNL_TOLERANCE", 0.01),
			SentimentScore:       getEnvFloat("SENTIMENT_SCORE", -0.1),
			HistoryLookbackDays:  getEnvInt("HISTORY_LOOKBACK_DAYS", 180),
			ForecastLookbackDays: getEnvInt("FORECAST_LOOKBACK_DAYS", 365),
			ReconcileInterval:    getEnvDuration("RECONCILE_INTERVAL", 12*time.Hour),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
