package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Env  string
	Port string

	DatabaseURL string

	RedisAddr string
	RedisPass string
	RedisDB   int

	JWTSecret string
	JWTExpiry time.Duration

	// Credits granted to a freshly registered account.
	StartingBalance int64

	// Wallet top-up bounds (per request and per calendar day).
	TopUpMax      int64
	TopUpDailyCap int64

	// How long an unfinished Blackjack/Mines round survives in the
	// coordinator before its state expires.
	RoundTTL time.Duration

	// Page size for the wallet history view.
	WalletPageSize int
}

// Load reads configuration from environment variables, applying defaults
// for everything that is not security sensitive.
func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		StartingBalance: getEnvInt64("STARTING_BALANCE", 1000),
		TopUpMax:        getEnvInt64("TOPUP_MAX", 1000),
		TopUpDailyCap:   getEnvInt64("TOPUP_DAILY_CAP", 5000),

		RoundTTL: getEnvDuration("ROUND_TTL", 2*time.Hour),

		WalletPageSize: getEnvInt("WALLET_PAGE_SIZE", 20),
	}

	if cfg.Env != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
