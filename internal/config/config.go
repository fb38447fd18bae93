package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram bot
	TelegramToken string

	// toncenter RPC provider
	ToncenterBaseURL string
	ToncenterAPIKey  string

	// Persistence
	DBPath string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		ToncenterBaseURL: getEnvDefault("TONCENTER_BASE_URL", "https://toncenter.com/api/v2"),
		ToncenterAPIKey:  os.Getenv("TONCENTER_API_KEY"),
		DBPath:           getEnvDefault("DB_PATH", "tonpurse.db"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.ToncenterAPIKey == "" {
		return nil, fmt.Errorf("TONCENTER_API_KEY is required")
	}

	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
