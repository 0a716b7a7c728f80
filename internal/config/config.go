// Package config loads relgraph's TOML configuration.
//
// Values are resolved with priority env > file > defaults. A missing file
// is not an error; an unknown key is.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/superrelativity/relgraph/pkg/buildinfo"
	"github.com/superrelativity/relgraph/pkg/errors"
	"github.com/superrelativity/relgraph/pkg/layout"
)

// Environment variables that override file values.
const (
	EnvSourceURL = "RELGRAPH_SOURCE_URL"
	EnvMongoURI  = "RELGRAPH_MONGO_URI"
	EnvRedisAddr = "RELGRAPH_REDIS_ADDR"
	EnvListen    = "RELGRAPH_LISTEN"
)

// Duration is a time.Duration written as "5m" or "1h30m" in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete configuration.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Store    StoreConfig    `toml:"store"`
	Cache    CacheConfig    `toml:"cache"`
	Session  SessionConfig  `toml:"session"`
	Server   ServerConfig   `toml:"server"`
	Sync     SyncConfig     `toml:"sync"`
	Layout   LayoutConfig   `toml:"layout"`
	Classify ClassifyConfig `toml:"classify"`
}

// SourceConfig locates the architecture repository API.
type SourceConfig struct {
	URL     string   `toml:"url" validate:"omitempty,url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout" validate:"gte=0"`
}

// StoreConfig selects the graph store.
type StoreConfig struct {
	Backend  string `toml:"backend" validate:"oneof=memory mongo"`
	URI      string `toml:"uri" validate:"required_if=Backend mongo"`
	Database string `toml:"database" validate:"required_if=Backend mongo"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend" validate:"oneof=null file redis"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"gte=0,lte=15"`
}

// SessionConfig selects where layout sessions live.
type SessionConfig struct {
	Backend string   `toml:"backend" validate:"oneof=memory file redis"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `toml:"listen" validate:"required"`
}

// SyncConfig configures the sync job.
type SyncConfig struct {
	Interval Duration `toml:"interval" validate:"gte=0"`
	Workers  int      `toml:"workers" validate:"gte=0,lte=64"`
}

// LayoutConfig holds the layout geometry.
type LayoutConfig struct {
	ColumnWidth   float64 `toml:"column_width" validate:"gte=0"`
	RowHeight     float64 `toml:"row_height" validate:"gte=0"`
	FallbackRoots int     `toml:"fallback_roots" validate:"gte=0"`
}

// ClassifyConfig tunes relationship classification.
type ClassifyConfig struct {
	MatchDescription bool `toml:"match_description"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     "http://localhost:8080",
			Timeout: Duration(10 * time.Second),
		},
		Store: StoreConfig{
			Backend:  "memory",
			Database: buildinfo.AppName,
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     Duration(24 * time.Hour),
		},
		Server: ServerConfig{Listen: ":8080"},
		Sync: SyncConfig{
			Interval: Duration(5 * time.Minute),
			Workers:  4,
		},
		Layout: LayoutConfig{
			ColumnWidth:   layout.DefaultColumnWidth,
			RowHeight:     layout.DefaultRowHeight,
			FallbackRoots: layout.DefaultFallbackRoots,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/relgraph/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, buildinfo.AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", buildinfo.AppName, "config.toml"), nil
}

// Load reads path (DefaultPath when empty), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML source on top of the defaults without consulting the
// environment.
func Parse(src string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(src, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(names, ", "))
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSourceURL); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Store.URI = v
		cfg.Store.Backend = "mongo"
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Backend = "redis"
	}
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("RELGRAPH_SYNC_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Workers = i
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-section requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if c.Session.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid config: session backend redis requires cache.redis_addr")
	}
	return nil
}

// String renders the configuration as TOML with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.Source.Token != "" {
		masked.Source.Token = "****"
	}
	if masked.Cache.RedisPassword != "" {
		masked.Cache.RedisPassword = "****"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(masked); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
