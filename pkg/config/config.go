package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RabbitURL      string
	RabbitExchange string

	SeedOnStart bool
}

func Load() *Config {
	// .env is optional, env vars win either way
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded configuration from .env")
	}

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8060"),
		DBHost:         getEnv("DB_HOST", "postgres"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "program"),
		DBPassword:     getEnv("DB_PASSWORD", "test"),
		DBName:         getEnv("DB_NAME", "library"),
		RabbitURL:      getEnv("RABBIT_URL", ""),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "library.events"),
		SeedOnStart:    getEnv("SEED_ON_START", "true") == "true",
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
