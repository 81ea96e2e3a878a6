package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Server struct {
		Port int
	}
	JWT struct {
		SecretKey        string // YAML key: "secret_key"
		AccessTTLMinutes int    // YAML key: "access_ttl_minutes"
	}
	Simulation struct {
		TickMS              int     // YAML key: "tick_ms"
		StepKM              float64 // YAML key: "step_km"
		ArrivalThresholdDeg float64 // YAML key: "arrival_threshold_deg"
		JitterDeg           float64 // YAML key: "jitter_deg"
	}
	RabbitMQ struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
	}
	Database struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates
// required fields. A missing file is not an error; the defaults carry a full
// standalone deployment.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := parseYAML(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// fall through with zero values; defaults apply below
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}

	// JWT
	if cfg.JWT.SecretKey == "" {
		cfg.JWT.SecretKey = "dev-secret"
	}
	if cfg.JWT.AccessTTLMinutes == 0 {
		cfg.JWT.AccessTTLMinutes = 12 * 60
	}

	// Simulation
	if cfg.Simulation.TickMS == 0 {
		cfg.Simulation.TickMS = 1500
	}
	if cfg.Simulation.StepKM == 0 {
		cfg.Simulation.StepKM = 0.2
	}
	if cfg.Simulation.ArrivalThresholdDeg == 0 {
		cfg.Simulation.ArrivalThresholdDeg = 0.0005
	}
	if cfg.Simulation.JitterDeg == 0 {
		cfg.Simulation.JitterDeg = 0.005
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
}

// validate checks required fields and basic ranges. Credentials for the
// optional backends are required only when that backend is enabled.
func (c *Config) validate() error {
	var problems []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be in 1..65535")
	}

	// JWT
	if c.JWT.AccessTTLMinutes <= 0 {
		problems = append(problems, "jwt.access_ttl_minutes must be positive")
	}

	// Simulation
	if c.Simulation.TickMS <= 0 {
		problems = append(problems, "simulation.tick_ms must be positive")
	}
	if c.Simulation.StepKM <= 0 {
		problems = append(problems, "simulation.step_km must be positive")
	}
	if c.Simulation.ArrivalThresholdDeg <= 0 {
		problems = append(problems, "simulation.arrival_threshold_deg must be positive")
	}
	if c.Simulation.JitterDeg < 0 {
		problems = append(problems, "simulation.jitter_deg must not be negative")
	}

	// RabbitMQ
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required when rabbitmq is enabled")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required when rabbitmq is enabled")
		}
	}

	// Database
	if c.Database.Enabled {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required when database is enabled")
		}
		if c.Database.Password == "" {
			problems = append(problems, "database.password is required when database is enabled")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.database is required when database is enabled")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
