package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DBPath        string
	WriteTimeout  int // seconds
	BotToken      string
	WebAppURL     string
	CORSOrigins   string
	DevAuthBypass bool
}

func Load() *Config {
	// .env рядом с бинарником опционален, боевые окружения задают переменные напрямую
	_ = godotenv.Load()

	cfg := &Config{
		Port:         8080,
		DBPath:       "ghostchat.db",
		WriteTimeout: 10,
		WebAppURL:    "https://massagertg.tw1.su",
		CORSOrigins:  "*",
	}

	if portStr := os.Getenv("GHOSTCHAT_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if dbPath := os.Getenv("GHOSTCHAT_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if timeoutStr := os.Getenv("GHOSTCHAT_WRITE_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.BotToken = token
	}

	if webAppURL := os.Getenv("WEBAPP_URL"); webAppURL != "" {
		cfg.WebAppURL = webAppURL
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = origins
	}

	// Явный флаг для dev-окружений: без него пустой токен не отключает проверку подписи
	if bypass := os.Getenv("GHOSTCHAT_DEV_AUTH_BYPASS"); bypass == "1" || bypass == "true" {
		cfg.DevAuthBypass = true
	}

	return cfg
}
