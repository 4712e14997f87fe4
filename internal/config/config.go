package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Notebook NotebookConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type NotebookConfig struct {
	Endpoint     string
	APIKey       string
	NotebookID   string
	DefaultModel string
	SessionTitle string
	StreamMode   string // "cumulative" or "incremental"
}

type SessionConfig struct {
	CookieName string
	Lifetime   time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Notebook: NotebookConfig{
			Endpoint:     getEnv("OPEN_NOTEBOOK_ENDPOINT", ""),
			APIKey:       getEnv("OPEN_NOTEBOOK_API_KEY", ""),
			NotebookID:   getEnv("OPEN_NOTEBOOK_NOTEBOOK_ID", ""),
			DefaultModel: getEnv("OPEN_NOTEBOOK_MODEL", ""),
			SessionTitle: getEnv("OPEN_NOTEBOOK_SESSION_TITLE", "Widget Chat"),
			StreamMode:   getEnv("OPEN_NOTEBOOK_STREAM_MODE", "cumulative"),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "open_notebook_session"),
			Lifetime:   time.Duration(getEnvAsInt("SESSION_LIFETIME_HOURS", 24)) * time.Hour,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
