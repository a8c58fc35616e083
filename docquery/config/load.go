package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path, fills defaults, applies DOCQUERY_*
// environment overrides and validates the result. An empty path loads
// the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse configuration file %q", path)
		}
	}
	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, errors.WithMessage(err, "configuration validation failed")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("DOCQUERY_ENGINE_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.Workers = i
		}
	}
	if val := os.Getenv("DOCQUERY_ENGINE_PARALLEL_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.ParallelThreshold = i
		}
	}
	if val := os.Getenv("DOCQUERY_ENGINE_CACHE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.CacheSize = i
		}
	}
	if val := os.Getenv("DOCQUERY_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("DOCQUERY_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
}
