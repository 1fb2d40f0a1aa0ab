package launchconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the gateway process settings.
type Config struct {
	Port              string        `yaml:"port"`
	TickRate          time.Duration `yaml:"tick_rate"`
	NATSURL           string        `yaml:"nats_url"`
	NATSSubjectPrefix string        `yaml:"nats_subject_prefix"`
	LogLevel          string        `yaml:"log_level"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:              "3000",
		TickRate:          time.Second,
		NATSSubjectPrefix: "launch.events",
		LogLevel:          "info",
		AllowedOrigins:    []string{"*"},
	}
}

// Load builds the config from defaults, the YAML file named by LAUNCH_CONFIG
// (if any), then LAUNCH_* / NATS_* / LOG_LEVEL environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("LAUNCH_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Validate reports settings the gateway cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return errors.New("tick rate must be positive")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("LAUNCH_PORT", c.Port)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSSubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATSSubjectPrefix)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("LAUNCH_TICK_RATE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LAUNCH_TICK_RATE %q: %w", v, err)
		}
		c.TickRate = d
	}

	if v := os.Getenv("LAUNCH_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.AllowedOrigins = origins
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
