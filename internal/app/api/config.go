package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

// Config carries environment-driven settings for the storefront processes.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisURL          string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	Progression       domain.ProgressionPolicy
	SweepCron         string
}

// LoadConfig seeds the environment from a .env file when one exists, reads environment
// variables, applies defaults, and validates basic constraints. Variables already set in
// the environment win over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		Progression:       domain.DefaultProgressionPolicy(),
		SweepCron:         strings.TrimSpace(os.Getenv("ORDER_SWEEP_CRON")),
	}
	shipAfter, err := positiveHours("ORDER_SHIP_AFTER_HOURS", domain.DefaultShipAfter)
	if err != nil {
		return Config{}, err
	}
	deliverAfter, err := positiveHours("ORDER_DELIVER_AFTER_HOURS", domain.DefaultDeliverAfter)
	if err != nil {
		return Config{}, err
	}
	cfg.Progression = domain.ProgressionPolicy{ShipAfter: shipAfter, DeliverAfter: deliverAfter}
	return cfg, nil
}

func positiveHours(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(hours) * time.Hour, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
