package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Reproject ReprojectConfig
	Transfer  TransferConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RatePerMinute  int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type ReprojectConfig struct {
	// ScratchRoot is where request-scoped scratch directories are created.
	// Empty means the system temp directory.
	ScratchRoot string
	MaxUploadMB int64
}

type TransferConfig struct {
	// RedisAddr switches the transfer registry to Redis when set; empty
	// keeps the in-process store.
	RedisAddr     string
	RedisDB       int
	TTL           time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
			RatePerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Reproject: ReprojectConfig{
			ScratchRoot: getEnv("SCRATCH_ROOT", ""),
			MaxUploadMB: int64(getEnvAsInt("MAX_UPLOAD_MB", 100)),
		},
		Transfer: TransferConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("TRANSFER_TTL", time.Hour),
			SweepInterval: getEnvAsDuration("TRANSFER_SWEEP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Reproject.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	if c.Transfer.TTL <= 0 {
		return fmt.Errorf("TRANSFER_TTL must be positive")
	}

	if c.Transfer.SweepInterval <= 0 {
		return fmt.Errorf("TRANSFER_SWEEP_INTERVAL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
