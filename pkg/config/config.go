package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Solver
	SolverTimeBudgetMs int `mapstructure:"SOLVER_TIME_BUDGET_MS"`
	MinSalary          int `mapstructure:"MIN_SALARY"` // 0 disables the floor

	// Portfolio generation
	MaxLineups               int `mapstructure:"MAX_LINEUPS"`
	MaxConsecutiveInfeasible int `mapstructure:"MAX_CONSECUTIVE_INFEASIBLE"`

	// Simulation
	MaxSimulations    int     `mapstructure:"MAX_SIMULATIONS"`
	SimulationWorkers int     `mapstructure:"SIMULATION_WORKERS"`
	ScoreVariance     float64 `mapstructure:"SCORE_VARIANCE"`

	// Redis cache (optional; empty URL disables caching)
	RedisURL        string        `mapstructure:"REDIS_URL"`
	CacheExpiration time.Duration `mapstructure:"CACHE_EXPIRATION"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SOLVER_TIME_BUDGET_MS", 5000)
	viper.SetDefault("MIN_SALARY", 0)
	viper.SetDefault("MAX_LINEUPS", 150)
	viper.SetDefault("MAX_CONSECUTIVE_INFEASIBLE", 25)
	viper.SetDefault("MAX_SIMULATIONS", 10000)
	viper.SetDefault("SIMULATION_WORKERS", 4)
	viper.SetDefault("SCORE_VARIANCE", 0.25)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CACHE_EXPIRATION", "1h")

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SolverTimeBudget returns the per-solve wall clock budget.
func (c *Config) SolverTimeBudget() time.Duration {
	return time.Duration(c.SolverTimeBudgetMs) * time.Millisecond
}
