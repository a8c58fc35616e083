// Package config holds the settings of the docquery engine and CLI.
package config

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

type EngineConfig struct {
	// Workers is the size of the evaluation goroutine pool.
	Workers int `yaml:"workers"`
	// ParallelThreshold is the smallest batch evaluated on the pool.
	// Smaller batches are evaluated on the calling goroutine.
	ParallelThreshold int `yaml:"parallel_threshold"`
	// CacheSize bounds the number of interned queries.
	CacheSize int `yaml:"cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps Level onto slog. Unknown levels map to Info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
