// Package config provides engine configuration with defaults-first loading:
// built-in defaults, then a YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment overrides.
const EnvPrefix = "AGENTRELAY"

// Config is the complete engine configuration.
type Config struct {
	Orchestration OrchestrationSettings `yaml:"orchestration"`
	History       HistorySettings       `yaml:"history"`
	Log           LogSettings           `yaml:"log"`
}

// OrchestrationSettings holds routing-loop defaults.
type OrchestrationSettings struct {
	// MaxTurns bounds the handoff routing loop.
	MaxTurns int `yaml:"max_turns"`
	// InteractiveTimeout bounds each human-in-the-loop suspension.
	InteractiveTimeout time.Duration `yaml:"interactive_timeout"`
	// NestedTimeout bounds a nested orchestration's result.
	NestedTimeout time.Duration `yaml:"nested_timeout"`
	// ResultTimeout is the suggested bound for top-level result waits.
	ResultTimeout time.Duration `yaml:"result_timeout"`
}

// HistorySettings holds shared conversation store defaults.
type HistorySettings struct {
	// TokenBudget bounds the stored conversation; zero disables trimming.
	TokenBudget int `yaml:"token_budget"`
	// Encoding names the tiktoken encoding for exact budgeting.
	Encoding string `yaml:"encoding"`
	// RedisAddr enables the Redis-backed store when non-empty.
	RedisAddr string `yaml:"redis_addr"`
	// RedisKeyPrefix namespaces conversation keys.
	RedisKeyPrefix string `yaml:"redis_key_prefix"`
}

// LogSettings holds logger construction options.
type LogSettings struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Orchestration: OrchestrationSettings{
			MaxTurns:           20,
			InteractiveTimeout: 5 * time.Minute,
			NestedTimeout:      60 * time.Second,
			ResultTimeout:      2 * time.Minute,
		},
		History: HistorySettings{
			TokenBudget:    0,
			Encoding:       "cl100k_base",
			RedisKeyPrefix: "agentrelay:conversation:",
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that precedence order. An empty path skips the
// file layer; a missing file at a given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BuildLogger constructs a zap logger per the log settings.
func (c Config) BuildLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", c.Log.Level, err)
	}
	zc.Level = level
	return zc.Build()
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup("MAX_TURNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s_MAX_TURNS: %w", EnvPrefix, err)
		}
		cfg.Orchestration.MaxTurns = n
	}
	if v, ok := lookup("INTERACTIVE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s_INTERACTIVE_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Orchestration.InteractiveTimeout = d
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.History.RedisAddr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	return nil
}

func lookup(suffix string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + "_" + suffix)
	return v, ok && v != ""
}
