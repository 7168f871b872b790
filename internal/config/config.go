// Package config loads codecollab server settings from a YAML file, a .env
// file and CODECOLLAB_* environment variables, in that order of precedence
// from lowest to highest. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Evaluators for JavaScript.
const (
	EvaluatorLiteral = "literal"
	EvaluatorQuickJS = "quickjs"
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Editor    EditorConfig    `yaml:"editor"`
	Execution ExecutionConfig `yaml:"execution"`
	Auth      AuthConfig      `yaml:"auth"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowOrigins    []string `yaml:"allow_origins,omitempty"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For
	// header is believed. Empty trusts none.
	TrustedProxies  []string `yaml:"trusted_proxies,omitempty"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// StorageConfig selects where editor state is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file, redis
	Dir     string `yaml:"dir"`

	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	TTL           Duration `yaml:"ttl"`
}

type EditorConfig struct {
	AutosaveInterval Duration `yaml:"autosave_interval"`
	IdleTTL          Duration `yaml:"idle_ttl"`
	RunDelay         Duration `yaml:"run_delay"`
}

// ExecutionConfig selects how JavaScript is evaluated.
type ExecutionConfig struct {
	Evaluator     string   `yaml:"evaluator"` // literal, quickjs
	QuickJSModule string   `yaml:"quickjs_module"`
	Timeout       Duration `yaml:"timeout"`
	MemoryLimit   string   `yaml:"memory_limit"` // 16MB, 64MB, 256MB
	DiskCache     bool     `yaml:"disk_cache"`
}

type AuthConfig struct {
	Secret   string   `yaml:"secret"`
	TokenTTL Duration `yaml:"token_ttl"`
	Delay    Duration `yaml:"delay"`
}

type RoomsConfig struct {
	TTL   Duration `yaml:"ttl"`
	Delay Duration `yaml:"delay"`
}

// RateLimitConfig bounds /api/execute per client IP. Zero Requests
// disables the limit.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Backend:   StorageMemory,
			Dir:       "data",
			RedisAddr: "localhost:6379",
		},
		Editor: EditorConfig{
			AutosaveInterval: Duration(5 * time.Second),
			IdleTTL:          Duration(30 * time.Minute),
		},
		Execution: ExecutionConfig{
			Evaluator:   EvaluatorLiteral,
			Timeout:     Duration(5 * time.Second),
			MemoryLimit: "64MB",
		},
		Auth: AuthConfig{TokenTTL: Duration(24 * time.Hour)},
		Rooms: RoomsConfig{TTL: Duration(24 * time.Hour)},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   Duration(time.Minute),
		},
	}
}

// SimulateLatency sets artificial delays imitating the network round trips
// of a hosted deployment.
func (c *Config) SimulateLatency() {
	c.Editor.RunDelay = Duration(1500 * time.Millisecond)
	c.Rooms.Delay = Duration(2 * time.Second)
	c.Auth.Delay = Duration(time.Second)
}

// Load reads path on top of the defaults and applies environment
// overrides. A missing file is not an error. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file backend")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Execution.Evaluator {
	case EvaluatorLiteral:
	case EvaluatorQuickJS:
		if c.Execution.QuickJSModule == "" {
			return errors.New("execution.quickjs_module is required for the quickjs evaluator")
		}
	default:
		return fmt.Errorf("unknown evaluator %q", c.Execution.Evaluator)
	}

	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: invalid entry %q", p)
			}
		}
	}

	if c.RateLimit.Requests < 0 {
		return errors.New("rate_limit.requests must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.window must be positive")
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"CODECOLLAB_ADDR":           &c.Server.Addr,
		"CODECOLLAB_LOG_LEVEL":      &c.Log.Level,
		"CODECOLLAB_LOG_FORMAT":     &c.Log.Format,
		"CODECOLLAB_STORAGE":        &c.Storage.Backend,
		"CODECOLLAB_STORAGE_DIR":    &c.Storage.Dir,
		"CODECOLLAB_REDIS_ADDR":     &c.Storage.RedisAddr,
		"CODECOLLAB_REDIS_PASSWORD": &c.Storage.RedisPassword,
		"CODECOLLAB_EVALUATOR":      &c.Execution.Evaluator,
		"CODECOLLAB_QJS_WASM":       &c.Execution.QuickJSModule,
		"CODECOLLAB_JWT_SECRET":     &c.Auth.Secret,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CODECOLLAB_TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}
	if v := os.Getenv("CODECOLLAB_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CODECOLLAB_REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = db
	}
	if v := os.Getenv("CODECOLLAB_SIMULATE_LATENCY"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CODECOLLAB_SIMULATE_LATENCY: %w", err)
		}
		if on {
			c.SimulateLatency()
		}
	}
	return nil
}

// Duration is a time.Duration written as a string such as "5s" in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
