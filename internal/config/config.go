package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "NEWSDESK_CONFIG"
	redisAddrEnv  = "NEWSDESK_REDIS_ADDR"
	badgerPathEnv = "NEWSDESK_BADGER_PATH"
	httpAddrEnv   = "NEWSDESK_HTTP_ADDR"
	logLevelEnv   = "NEWSDESK_LOG_LEVEL"
	notifyTimeEnv = "NEWSDESK_NOTIFY_TIMEOUT"
	notifyDeadEnv = "NEWSDESK_NOTIFY_DEADLINE"
)

// Config holds the settings shared by the server and the admin commands.
type Config struct {
	Redis  RedisConfig  `yaml:"redis"`
	Badger BadgerConfig `yaml:"badger"`
	HTTP   HTTPConfig   `yaml:"http"`
	Notify NotifyConfig `yaml:"notify"`
	Log    LogConfig    `yaml:"log"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type BadgerConfig struct {
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// NotifyConfig bounds the approval fan-out. Timeout applies per reader,
// Deadline to the fan-out as a whole.
type NotifyConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Deadline    time.Duration `yaml:"deadline"`
	Concurrency int           `yaml:"concurrency"`
	Queue       string        `yaml:"queue"`
	Sink        string        `yaml:"sink"` // "queue" or "log"
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Badger: BadgerConfig{Path: "./badger-data"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Notify: NotifyConfig{
			Timeout:     5 * time.Second,
			Deadline:    10 * time.Second,
			Concurrency: 8,
			Queue:       "queue:notifications",
			Sink:        "queue",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path (or $NEWSDESK_CONFIG when path is empty),
// merges it over the defaults and applies environment overrides. A missing
// path is not an error; an unreadable or malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = merge(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("config: notify.timeout must be positive")
	}
	if c.Notify.Deadline < c.Notify.Timeout {
		return fmt.Errorf("config: notify.deadline must not be shorter than notify.timeout")
	}
	if c.Notify.Concurrency <= 0 {
		return fmt.Errorf("config: notify.concurrency must be positive")
	}
	switch c.Notify.Sink {
	case "queue", "log":
	default:
		return fmt.Errorf("config: unknown notify.sink %q", c.Notify.Sink)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(badgerPathEnv); v != "" {
		c.Badger.Path = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(notifyTimeEnv); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", notifyTimeEnv, err)
		}
		c.Notify.Timeout = d
	}
	if v := os.Getenv(notifyDeadEnv); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", notifyDeadEnv, err)
		}
		c.Notify.Deadline = d
	}
	return nil
}

// parseSeconds accepts a Go duration or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err == nil {
		return d, nil
	}
	secs, serr := strconv.Atoi(v)
	if serr != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func merge(base, override Config) Config {
	if override.Redis.Addr != "" {
		base.Redis.Addr = override.Redis.Addr
	}
	if override.Badger.Path != "" {
		base.Badger.Path = override.Badger.Path
	}
	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.Notify.Timeout != 0 {
		base.Notify.Timeout = override.Notify.Timeout
	}
	if override.Notify.Deadline != 0 {
		base.Notify.Deadline = override.Notify.Deadline
	}
	if override.Notify.Concurrency != 0 {
		base.Notify.Concurrency = override.Notify.Concurrency
	}
	if override.Notify.Queue != "" {
		base.Notify.Queue = override.Notify.Queue
	}
	if override.Notify.Sink != "" {
		base.Notify.Sink = override.Notify.Sink
	}
	if override.Log.Level != "" {
		base.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		base.Log.Format = override.Log.Format
	}
	return base
}
