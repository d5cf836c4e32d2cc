package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string `mapstructure:"DB_DSN"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	Environment   string `mapstructure:"ENV"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	NATSURL       string `mapstructure:"NATS_URL"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	SuggestionTTL   time.Duration `mapstructure:"SUGGESTION_CACHE_TTL"`
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel     string        `mapstructure:"GEMINI_MODEL"`
	SuggestionsRate int           `mapstructure:"SUGGESTIONS_PER_MINUTE"`

	FocusCategoryID  int64  `mapstructure:"FOCUS_TIME_CATEGORY_ID"`
	CascadeShiftMode string `mapstructure:"CASCADE_SHIFT_MODE"`
	SweepSpec        string `mapstructure:"COMPLETION_SWEEP_CRON"`
	CORSOrigins      string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:            getenv("DB_DSN"),
		JWTSecret:        getenv("JWT_SECRET"),
		HTTPAddr:         withDefault(getenv("HTTP_ADDR"), ":8080"),
		Environment:      withDefault(getenv("ENV"), "development"),
		MigrationsDir:    getenv("MIGRATIONS_DIR"),
		TelegramToken:    getenv("TELEGRAM_TOKEN"),
		NATSURL:          getenv("NATS_URL"),
		RedisAddr:        getenv("REDIS_ADDR"),
		RedisPassword:    getenv("REDIS_PASSWORD"),
		GeminiAPIKey:     getenv("GEMINI_API_KEY"),
		GeminiModel:      getenv("GEMINI_MODEL"),
		CascadeShiftMode: withDefault(getenv("CASCADE_SHIFT_MODE"), "overlap"),
		SweepSpec:        withDefault(getenv("COMPLETION_SWEEP_CRON"), "*/5 * * * *"),
		CORSOrigins:      withDefault(getenv("CORS_ORIGINS"), "*"),
	}

	var err error
	if cfg.FocusCategoryID, err = parseInt64(getenv, "FOCUS_TIME_CATEGORY_ID", 1); err != nil {
		return nil, err
	}
	rate, err := parseInt64(getenv, "SUGGESTIONS_PER_MINUTE", 5)
	if err != nil {
		return nil, err
	}
	cfg.SuggestionsRate = int(rate)

	cfg.SuggestionTTL = time.Hour
	if v := getenv("SUGGESTION_CACHE_TTL"); v != "" {
		if cfg.SuggestionTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("SUGGESTION_CACHE_TTL: %w", err)
		}
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// SuggestionsEnabled - задан ли ключ внешнего советника
func (c *Config) SuggestionsEnabled() bool {
	return c.GeminiAPIKey != ""
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt64(getenv func(string) string, key string, def int64) (int64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
