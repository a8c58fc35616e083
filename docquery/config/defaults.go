package config

import "runtime"

const (
	DefaultParallelThreshold = 256
	DefaultCacheSize         = 1024
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

func Defaults() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Engine.ParallelThreshold == 0 {
		cfg.Engine.ParallelThreshold = DefaultParallelThreshold
	}
	if cfg.Engine.CacheSize == 0 {
		cfg.Engine.CacheSize = DefaultCacheSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
