package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/inkframe/pkg/pipeline"
)

// Config is the optional config.toml. Flags override it; pipeline defaults
// fill whatever both leave unset.
type Config struct {
	Render    RenderConfig    `toml:"render"`
	Cache     CacheConfig     `toml:"cache"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Templates TemplatesConfig `toml:"templates"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Formats          []string      `toml:"formats"`
	PageNumbers      bool          `toml:"page_numbers"`
	Background       string        `toml:"background"`
	Scale            float64       `toml:"scale"`
	ImageTimeout     time.Duration `toml:"image_timeout"`
	ImageConcurrency int           `toml:"image_concurrency"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, memory, redis or none
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// StoreConfig selects the page store used by the server.
type StoreConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Dir        string `toml:"dir"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr    string        `toml:"addr"`
	Timeout time.Duration `toml:"timeout"`
}

// TemplatesConfig points at a custom template catalog.
type TemplatesConfig struct {
	File string `toml:"file"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Cache:  CacheConfig{Backend: "file"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads the config file at path. An empty path means the default
// location, where a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := pipeline.ValidateFormats(cfg.Render.Formats); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyRender copies render settings into opts where opts leaves them unset.
func (cfg Config) applyRender(opts *pipeline.Options) {
	r := cfg.Render
	if len(opts.Formats) == 0 {
		opts.Formats = r.Formats
	}
	if r.PageNumbers {
		opts.PageNumbers = true
	}
	if opts.Background == "" {
		opts.Background = r.Background
	}
	if opts.Scale == 0 {
		opts.Scale = r.Scale
	}
	if opts.ImageTimeout == 0 {
		opts.ImageTimeout = r.ImageTimeout
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = r.ImageConcurrency
	}
}
