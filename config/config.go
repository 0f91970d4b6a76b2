// Package config loads service settings from config.yaml, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
	"github.com/wwwlqh/insurance-risk-modeling/validation"
)

// Environment overrides, applied after the YAML file.
const (
	EnvHTTPPort          = "IRM_HTTP_PORT"
	EnvArtifactsDir      = "IRM_ARTIFACTS_DIR"
	EnvLogLevel          = "IRM_LOG_LEVEL"
	EnvLogFile           = "IRM_LOG_FILE"
	EnvDBPath            = "IRM_DB_PATH"
	EnvDecisionThreshold = "IRM_DECISION_THRESHOLD"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Database   DatabaseConfig   `yaml:"database"`
	Validation ValidationConfig `yaml:"validation"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ArtifactsConfig struct {
	Dir            string            `yaml:"dir"`
	Files          map[string]string `yaml:"files"`
	ClassifierType string            `yaml:"classifier_type"`
	RegressorType  string            `yaml:"regressor_type"`
	Watch          bool              `yaml:"watch"`
}

type ScoringConfig struct {
	DecisionThreshold float64 `yaml:"decision_threshold"`
	CacheSize         int     `yaml:"cache_size"`
}

// DatabaseConfig points at the SQLite audit log. An empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ValidationConfig struct {
	ExtraRules []validation.Rule `yaml:"extra_rules"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8000,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Artifacts: ArtifactsConfig{
			Dir:            "models",
			ClassifierType: ml.KindRandomForest,
			RegressorType:  ml.KindGradientBoosting,
			Watch:          true,
		},
		Scoring: ScoringConfig{
			DecisionThreshold: ml.DefaultDecisionThreshold,
			CacheSize:         1024,
		},
		Database: DatabaseConfig{
			Path: "data/predictions.db",
		},
	}
}

// Load reads path on top of Default, then applies .env and IRM_* overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPPort, err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvDecisionThreshold); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDecisionThreshold, err)
		}
		c.Scoring.DecisionThreshold = threshold
	}
	return nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be within 1-65535, got %d", c.HTTP.Port)
	}
	if t := c.Scoring.DecisionThreshold; t <= 0 || t >= 1 {
		return fmt.Errorf("scoring.decision_threshold must be within (0,1), got %v", t)
	}
	if c.Scoring.CacheSize < 0 {
		return fmt.Errorf("scoring.cache_size must not be negative, got %d", c.Scoring.CacheSize)
	}
	if c.Artifacts.Dir == "" {
		return errors.New("artifacts.dir is required")
	}
	known := make(map[ml.Slot]bool)
	for _, slot := range ml.Slots() {
		known[slot] = true
	}
	for slot := range c.Artifacts.Files {
		if !known[ml.Slot(slot)] {
			return fmt.Errorf("artifacts.files: unknown slot %q", slot)
		}
	}
	return nil
}

// ArtifactConfig maps the artifacts and scoring sections onto the loader's
// settings.
func (c *Config) ArtifactConfig() ml.ArtifactConfig {
	ac := ml.DefaultArtifactConfig(c.Artifacts.Dir)
	for slot, name := range c.Artifacts.Files {
		ac.Files[ml.Slot(slot)] = name
	}
	if c.Artifacts.ClassifierType != "" {
		ac.ClassifierType = c.Artifacts.ClassifierType
	}
	if c.Artifacts.RegressorType != "" {
		ac.RegressorType = c.Artifacts.RegressorType
	}
	ac.DecisionThreshold = c.Scoring.DecisionThreshold
	return ac
}
