// Package cli implements the inkframe command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/inkframe/pkg/buildinfo"
	"github.com/matzehuels/inkframe/pkg/cache"
	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/pipeline"
	"github.com/matzehuels/inkframe/pkg/store"
	"github.com/matzehuels/inkframe/pkg/templates"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "inkframe"

	// keyPrefix scopes cache keys in shared backends.
	keyPrefix = "inkframe"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Inkframe lays out and renders comic pages",
		Long:         `Inkframe turns page records (panels, images and speech bubbles) into finished comic pages. Panels are placed by layout templates, bubbles are positioned without overlap, and pages render to PNG, PDF, SVG or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), commandLogger(c.Logger, cmd.Name())))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/inkframe/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, keyer, err := newCache(ctx, c.Config.Cache, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.AllowLocalImages = true
	return runner, nil
}

// newCache builds the configured cache backend. Shared backends get scoped
// keys so several tools can use one Redis.
func newCache(ctx context.Context, cfg CacheConfig, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil, nil
	case "memory":
		return cache.NewMemoryCache(10 * time.Minute), nil, nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		return rc, cache.NewScopedKeyer(nil, keyPrefix), nil
	case "file", "":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil, nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		return fc, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q (want file, memory, redis or none)", cfg.Backend)
	}
}

// newStore builds the configured page store: MongoDB when a URI is set,
// otherwise a directory of JSON files.
func newStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	if cfg.MongoURI != "" {
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	}
	return store.NewFileStore(cfg.Dir)
}

// registry returns the configured template catalog.
func (c *CLI) registry() (*templates.Registry, error) {
	if c.Config.Templates.File == "" {
		return templates.Builtin(), nil
	}
	data, err := os.ReadFile(c.Config.Templates.File)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	r, err := templates.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Config.Templates.File, err)
	}
	return r, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/inkframe/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/inkframe/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
