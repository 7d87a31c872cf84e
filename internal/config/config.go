// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel   string
	Port       int
	DevMode    bool
	Simulation SimulationConfig
}

// SimulationConfig holds defaults and caps for Monte Carlo runs.
// Caps bound the work a single request can ask for.
type SimulationConfig struct {
	Scenarios        int    // Default scenario count when a request omits it
	MaxScenarios     int    // Upper bound on scenarios per request
	Resamples        int    // Default bootstrap resample count
	MaxResamples     int    // Upper bound on bootstrap resamples per request
	Seed             uint64 // Default seed; 0 means derive one from the clock
	BootstrapWorkers int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Simulation: SimulationConfig{
			Scenarios:        getEnvAsInt("MC_SCENARIOS", 10000),
			MaxScenarios:     getEnvAsInt("MC_MAX_SCENARIOS", 1000000),
			Resamples:        getEnvAsInt("MC_BOOTSTRAP_RESAMPLES", 1000),
			MaxResamples:     getEnvAsInt("MC_MAX_RESAMPLES", 100000),
			Seed:             getEnvAsUint64("MC_SEED", 0),
			BootstrapWorkers: getEnvAsInt("MC_WORKERS", runtime.NumCPU()),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that numeric settings are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	s := c.Simulation
	checks := []struct {
		name  string
		value int
	}{
		{"MC_SCENARIOS", s.Scenarios},
		{"MC_MAX_SCENARIOS", s.MaxScenarios},
		{"MC_BOOTSTRAP_RESAMPLES", s.Resamples},
		{"MC_MAX_RESAMPLES", s.MaxResamples},
		{"MC_WORKERS", s.BootstrapWorkers},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", check.name, check.value)
		}
	}

	if s.Scenarios > s.MaxScenarios {
		return fmt.Errorf("MC_SCENARIOS (%d) exceeds MC_MAX_SCENARIOS (%d)", s.Scenarios, s.MaxScenarios)
	}
	if s.Resamples > s.MaxResamples {
		return fmt.Errorf("MC_BOOTSTRAP_RESAMPLES (%d) exceeds MC_MAX_RESAMPLES (%d)", s.Resamples, s.MaxResamples)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
