package sandbox

import "time"

// Option configures an Evaluator at creation time.
type Option func(*config)

type config struct {
	timeout          time.Duration
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // Max memory pages (each page = 64KB), 0 = wazero default (4GB)
}

func defaultConfig() config {
	return config{
		timeout:          5 * time.Second,
		memoryLimitPages: MemoryLimit64MB,
	}
}

// WithTimeout sets the maximum wall time of a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithDiskCache enables a persistent compilation cache.
// Optionally provide a custom directory; otherwise uses
// $XDG_CACHE_HOME/codecollab or ~/.cache/codecollab.
func WithDiskCache(dir ...string) Option {
	return func(c *config) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit sets the maximum memory available to the engine, in
// 64KB pages. Zero removes the limit.
func WithMemoryLimit(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit16MB  uint32 = 256
	MemoryLimit64MB  uint32 = 1024
	MemoryLimit256MB uint32 = 4096
)

// ParseMemoryLimit maps "16mb", "64mb" and "256mb" to page counts.
// Anything else yields zero.
func ParseMemoryLimit(s string) uint32 {
	switch s {
	case "16mb", "16MB":
		return MemoryLimit16MB
	case "64mb", "64MB":
		return MemoryLimit64MB
	case "256mb", "256MB":
		return MemoryLimit256MB
	default:
		return 0
	}
}
