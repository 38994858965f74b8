package platform

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Credential is what a provider adapter needs to reach its API.
type Credential struct {
	APIKey  string
	BaseURL string
}

// Config is loaded once at startup and is read-only afterwards.
type Config struct {
	Port        string
	LogPath     string
	LogLevel    string
	AllowOrigin string

	DB DBConfig

	// Credentials is keyed by lower-case provider name.
	Credentials map[string]Credential

	AnthropicMaxTokens int64
	ModelCacheTTL      time.Duration
	ModelRefreshSpec   string
	SentryDSN          string
}

// DBConfig 包含数据库连接的配置信息
type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SqlitePath string
}

func LoadConfig() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		LogPath:     getEnv("LOG_PATH", "./log"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AllowOrigin: os.Getenv("CORS_ORIGIN"),
		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
			Host:       os.Getenv("SQL_HOST"),
			Port:       getEnv("SQL_PORT", "3306"),
			User:       os.Getenv("SQL_USER"),
			Password:   os.Getenv("SQL_PASSWORD"),
			DBName:     os.Getenv("SQL_DBNAME"),
			SqlitePath: getEnv("SQLITE_PATH", "relaychat.db"),
		},
		Credentials: map[string]Credential{
			"openai": {
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/"),
			},
			"anthropic": {
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				BaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			},
		},
		AnthropicMaxTokens: int64(getEnvInt("ANTHROPIC_MAX_TOKENS", 1024)),
		ModelCacheTTL:      getEnvDuration("MODEL_CACHE_TTL", 10*time.Minute),
		ModelRefreshSpec:   getEnv("MODEL_REFRESH_SPEC", "@every 30m"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
