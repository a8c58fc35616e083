package config

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

func Validate(cfg *Config) error {
	var result *multierror.Error
	if cfg.Engine.Workers < 1 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "engine.workers must be positive, got %d", cfg.Engine.Workers))
	}
	if cfg.Engine.ParallelThreshold < 1 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "engine.parallel_threshold must be positive, got %d", cfg.Engine.ParallelThreshold))
	}
	if cfg.Engine.CacheSize < 1 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "engine.cache_size must be positive, got %d", cfg.Engine.CacheSize))
	}
	if !oneOf(strings.ToLower(cfg.Log.Level), validLogLevels) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "log.level %q is not one of %v", cfg.Log.Level, validLogLevels))
	}
	if !oneOf(strings.ToLower(cfg.Log.Format), validLogFormats) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "log.format %q is not one of %v", cfg.Log.Format, validLogFormats))
	}
	return result.ErrorOrNil()
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
