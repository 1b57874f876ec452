package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MEAL_API_URL", "https://meals.example.com")
	t.Setenv("PLAN_API_URL", "https://plans.example.com")
	t.Setenv("PLAN_API_KEY", "abc123:6272696e67207468652073616c7361")
}

func clearOptional(t *testing.T) {
	t.Helper()
	t.Setenv("CACHE_DB_PATH", "")
	t.Setenv("HOUSEHOLD_SIZE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SAVE_DEBOUNCE", "")
	t.Setenv("SAVE_COOLDOWN", "")
}

func TestNewFromEnvDefaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}

	if cfg.MealAPIURL != "https://meals.example.com" {
		t.Errorf("MealAPIURL = %q", cfg.MealAPIURL)
	}
	if cfg.PlanAPIURL != "https://plans.example.com" {
		t.Errorf("PlanAPIURL = %q", cfg.PlanAPIURL)
	}
	if cfg.PlanAPIKey != "abc123:6272696e67207468652073616c7361" {
		t.Errorf("PlanAPIKey = %q", cfg.PlanAPIKey)
	}
	if cfg.CacheDBPath != "data/plan.db" {
		t.Errorf("CacheDBPath = %q, want default", cfg.CacheDBPath)
	}
	if cfg.HouseholdSize != 2 {
		t.Errorf("HouseholdSize = %d, want 2", cfg.HouseholdSize)
	}
	if cfg.SaveDebounce != 10*time.Second {
		t.Errorf("SaveDebounce = %v, want 10s", cfg.SaveDebounce)
	}
	if cfg.SaveCooldown != 5*time.Second {
		t.Errorf("SaveCooldown = %v, want 5s", cfg.SaveCooldown)
	}
}

func TestNewFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_DB_PATH", "/tmp/alt.db")
	t.Setenv("HOUSEHOLD_SIZE", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SAVE_DEBOUNCE", "30s")
	t.Setenv("SAVE_COOLDOWN", "2s")

	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}

	if cfg.CacheDBPath != "/tmp/alt.db" {
		t.Errorf("CacheDBPath = %q", cfg.CacheDBPath)
	}
	if cfg.HouseholdSize != 5 {
		t.Errorf("HouseholdSize = %d", cfg.HouseholdSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.SaveDebounce != 30*time.Second {
		t.Errorf("SaveDebounce = %v", cfg.SaveDebounce)
	}
	if cfg.SaveCooldown != 2*time.Second {
		t.Errorf("SaveCooldown = %v", cfg.SaveCooldown)
	}
}

func TestNewFromEnvMissingRequired(t *testing.T) {
	required := []string{"MEAL_API_URL", "PLAN_API_URL", "PLAN_API_KEY"}

	for _, name := range required {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			clearOptional(t)
			t.Setenv(name, "")

			if _, err := NewFromEnv(); err == nil {
				t.Errorf("NewFromEnv() succeeded without %s", name)
			}
		})
	}
}

func TestNewFromEnvInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric household size", "HOUSEHOLD_SIZE", "two"},
		{"zero household size", "HOUSEHOLD_SIZE", "0"},
		{"negative household size", "HOUSEHOLD_SIZE", "-1"},
		{"malformed debounce", "SAVE_DEBOUNCE", "soon"},
		{"zero debounce", "SAVE_DEBOUNCE", "0s"},
		{"malformed cooldown", "SAVE_COOLDOWN", "later"},
		{"negative cooldown", "SAVE_COOLDOWN", "-5s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			clearOptional(t)
			t.Setenv(tc.key, tc.value)

			if _, err := NewFromEnv(); err == nil {
				t.Errorf("NewFromEnv() accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}
