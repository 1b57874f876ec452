package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	MealAPIURL string
	PlanAPIURL string
	PlanAPIKey string

	CacheDBPath   string
	HouseholdSize int
	LogLevel      string

	SaveDebounce time.Duration
	SaveCooldown time.Duration
}

// NewFromEnv creates a new Config object from environment variables. A
// .env file in the working directory is loaded first if present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	mealAPIURL := os.Getenv("MEAL_API_URL")
	if mealAPIURL == "" {
		return nil, fmt.Errorf("MEAL_API_URL environment variable not set")
	}

	planAPIURL := os.Getenv("PLAN_API_URL")
	if planAPIURL == "" {
		return nil, fmt.Errorf("PLAN_API_URL environment variable not set")
	}

	planAPIKey := os.Getenv("PLAN_API_KEY")
	if planAPIKey == "" {
		return nil, fmt.Errorf("PLAN_API_KEY environment variable not set")
	}

	cacheDBPath := os.Getenv("CACHE_DB_PATH")
	if cacheDBPath == "" {
		cacheDBPath = "data/plan.db"
	}

	householdSize := 2
	if v := os.Getenv("HOUSEHOLD_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid HOUSEHOLD_SIZE %q", v)
		}
		householdSize = n
	}

	saveDebounce := 10 * time.Second
	if v := os.Getenv("SAVE_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SAVE_DEBOUNCE %q", v)
		}
		saveDebounce = d
	}

	saveCooldown := 5 * time.Second
	if v := os.Getenv("SAVE_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SAVE_COOLDOWN %q", v)
		}
		saveCooldown = d
	}

	return &Config{
		MealAPIURL:    mealAPIURL,
		PlanAPIURL:    planAPIURL,
		PlanAPIKey:    planAPIKey,
		CacheDBPath:   cacheDBPath,
		HouseholdSize: householdSize,
		LogLevel:      os.Getenv("LOG_LEVEL"),
		SaveDebounce:  saveDebounce,
		SaveCooldown:  saveCooldown,
	}, nil
}
