// Package config loads the unformer configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/unformer/config.toml unless
// a path is given explicitly. Every key is optional; missing keys keep the
// values from [Default]. Command-line flags override the file.
//
//	origin = "https://models.example.org/"
//
//	[view]
//	mode = "compact"
//	auto_depth = 2
//	split_size = 8
//
//	[layout]
//	engine = "graphviz"
//	margin = 20
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/pipeline"
)

// AppName names the configuration and cache directories.
const AppName = "unformer"

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// Config is the decoded configuration file.
type Config struct {
	// Origin is a model directory or an http(s) base URL.
	Origin string `toml:"origin"`

	View   View   `toml:"view"`
	Layout Layout `toml:"layout"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`

	// path is the file the config was read from, empty for defaults.
	path string
}

// View holds the graph builder defaults.
type View struct {
	Mode      string `toml:"mode"`
	AutoDepth *int   `toml:"auto_depth"`
	SplitSize int    `toml:"split_size"`
}

// Layout selects the layout engine.
type Layout struct {
	Engine string  `toml:"engine"`
	Margin float64 `toml:"margin"`
}

// Cache configures the cache backend shared by all commands.
type Cache struct {
	Backend         string   `toml:"backend"`
	Dir             string   `toml:"dir"`
	TTL             Duration `toml:"ttl"`
	RedisURL        string   `toml:"redis_url"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
	Prefix          string   `toml:"prefix"`
}

// Server configures `unformer serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Origin: ".",
		View: View{
			Mode:      pipeline.DefaultViewMode,
			AutoDepth: pipeline.Depth(pipeline.DefaultAutoDepth),
			SplitSize: pipeline.DefaultSplitSize,
		},
		Layout: Layout{
			Engine: pipeline.DefaultEngine,
			Margin: layout.DefaultConfig().Margin,
		},
		Cache: Cache{
			Backend: cache.BackendFile,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Path returns the file the configuration was loaded from, or "" when
// defaults are in use.
func (c *Config) Path() string { return c.path }

// Load reads the configuration at path. An empty path reads the default
// location and falls back to [Default] when that file does not exist; an
// explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}
	if err := cfg.decode(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes TOML content on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config")
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return c.Validate()
}

// Validate checks the values that the pipeline would otherwise reject late.
func (c *Config) Validate() error {
	if err := errors.ValidateViewMode(c.View.Mode); err != nil {
		return err
	}
	if c.View.AutoDepth != nil {
		if err := errors.ValidateAutoDepth(*c.View.AutoDepth); err != nil {
			return err
		}
	}
	if err := errors.ValidateSplitSize(c.View.SplitSize); err != nil {
		return err
	}
	if err := pipeline.ValidateEngine(c.Layout.Engine); err != nil {
		return err
	}
	if c.Layout.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout margin must not be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	return nil
}

// CacheOptions converts the cache section for [cache.Open]. A file backend
// without a directory uses [CacheDir].
func (c *Config) CacheOptions() (cache.Options, error) {
	opts := cache.Options{
		Backend:         c.Cache.Backend,
		Dir:             c.Cache.Dir,
		RedisURL:        c.Cache.RedisURL,
		Prefix:          c.Cache.Prefix,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
	}
	if (opts.Backend == "" || opts.Backend == cache.BackendFile) && opts.Dir == "" {
		dir, err := CacheDir()
		if err != nil {
			return opts, err
		}
		opts.Dir = dir
	}
	return opts, nil
}

// PipelineOptions returns pipeline options seeded from the view and layout
// sections.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		ViewMode:  c.View.Mode,
		SplitSize: c.View.SplitSize,
		Engine:    c.Layout.Engine,
		Margin:    c.Layout.Margin,
	}
	if c.View.AutoDepth != nil {
		opts.AutoDepth = pipeline.Depth(*c.View.AutoDepth)
	}
	return opts
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the configuration directory (~/.config/unformer/).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/unformer/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
