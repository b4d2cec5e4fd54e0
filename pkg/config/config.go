// Package config loads orthoroute settings from a TOML file.
//
// The file is optional. When no path is given, Load looks for
// $XDG_CONFIG_HOME/orthoroute/config.toml (or ~/.config/orthoroute/config.toml)
// and falls back to [Defaults] when it does not exist. Command-line flags
// override file values.
//
//	[routing]
//	margin = 20
//	resize = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
)

const appName = "orthoroute"

// Cache backends.
const (
	BackendFile   = "file"
	BackendNull   = "null"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Routing configures the routing engine.
type Routing struct {
	Margin           float64 `toml:"margin"`
	BaseChannelWidth float64 `toml:"base_channel_width"`
	SlotSpacing      float64 `toml:"slot_spacing"`
	Resize           bool    `toml:"resize"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend         string        `toml:"backend"`
	Dir             string        `toml:"dir"`
	TTL             time.Duration `toml:"ttl"`
	Prefix          string        `toml:"prefix"`
	RedisAddr       string        `toml:"redis_addr"`
	RedisPassword   string        `toml:"redis_password"`
	RedisDB         int           `toml:"redis_db"`
	MongoURI        string        `toml:"mongo_uri"`
	MongoDatabase   string        `toml:"mongo_database"`
	MongoCollection string        `toml:"mongo_collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
}

// Render configures drawing.
type Render struct {
	Stroke       float64 `toml:"stroke"`
	Padding      float64 `toml:"padding"`
	ShowChannels bool    `toml:"show_channels"`
}

// Config is the complete configuration.
type Config struct {
	Routing Routing `toml:"routing"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
	Render  Render  `toml:"render"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Routing: Routing{
			Margin:           20,
			BaseChannelWidth: 20,
			SlotSpacing:      8,
		},
		Cache: Cache{
			Backend:         BackendFile,
			TTL:             7 * 24 * time.Hour,
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   appName,
			MongoCollection: "cache",
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Render: Render{
			Stroke:  1.5,
			Padding: 10,
		},
	}
}

// Validate checks value ranges and the cache backend.
func (c *Config) Validate() error {
	switch {
	case c.Routing.Margin <= 0:
		return invalid("routing.margin must be positive, got %g", c.Routing.Margin)
	case c.Routing.BaseChannelWidth <= 0:
		return invalid("routing.base_channel_width must be positive, got %g", c.Routing.BaseChannelWidth)
	case c.Routing.SlotSpacing <= 0:
		return invalid("routing.slot_spacing must be positive, got %g", c.Routing.SlotSpacing)
	case c.Cache.TTL < 0:
		return invalid("cache.ttl cannot be negative")
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0:
		return invalid("server timeouts cannot be negative")
	case c.Server.MaxBodyBytes <= 0:
		return invalid("server.max_body_bytes must be positive")
	case c.Render.Stroke <= 0:
		return invalid("render.stroke must be positive, got %g", c.Render.Stroke)
	case c.Render.Padding < 0:
		return invalid("render.padding cannot be negative")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNull, BackendMemory:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" || c.Cache.MongoDatabase == "" || c.Cache.MongoCollection == "" {
			return invalid("cache.mongo_uri, mongo_database and mongo_collection are required for the mongo backend")
		}
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return apperrors.New(apperrors.ErrCodeInvalidConfig, format, args...)
}

// DefaultPath returns the config file location under the XDG config
// directory.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// Load reads the config file at path over [Defaults] and validates the
// result. An empty path means [DefaultPath], which may be missing.
func Load(path string) (Config, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "read config")
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Path = path
	return cfg, cfg.Validate()
}

// Parse decodes TOML data into cfg, keeping the values of keys the data
// does not set. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return invalid("unknown config key %q", undecoded[0].String())
	}
	return nil
}
