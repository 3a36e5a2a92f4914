// Package config loads service configuration from the environment, with a
// .env file picked up in development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the marketplace engine.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	AdvertiserURL string

	StoreCacheTTL  time.Duration
	PlanCacheTTL   time.Duration
	CouponCacheTTL time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	storeTTL, err := getEnvDuration("STORE_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	planTTL, err := getEnvDuration("PLAN_CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	couponTTL, err := getEnvDuration("COUPON_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AdvertiserURL:  os.Getenv("ADVERTISER_URL"),
		StoreCacheTTL:  storeTTL,
		PlanCacheTTL:   planTTL,
		CouponCacheTTL: couponTTL,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
