package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ─────────────────────────────────────────────────────────────
// Config — YAML file with environment overrides
// ─────────────────────────────────────────────────────────────

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Sweep    SweepConfig    `yaml:"sweep"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`      // listen address, e.g. ":8080"
	StaticDir string `yaml:"staticDir"` // SPA assets; empty disables static serving
	DataDir   string `yaml:"dataDir"`   // secrets, sqlite file, working data
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "mysql" or "sqlite"
	DSN    string `yaml:"dsn"`    // mysql DSN or sqlite file path
}

type ImportConfig struct {
	RunTimeoutMinutes int `yaml:"runTimeoutMinutes"`
}

type SweepConfig struct {
	Schedule string `yaml:"schedule"` // cron expression; empty disables
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			DataDir: "./data",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/taskboard.db",
		},
		Import: ImportConfig{RunTimeoutMinutes: 5},
		Sweep:  SweepConfig{Schedule: "*/15 * * * *"},
	}
}

// Load reads the YAML config at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Database.Driver != "mysql" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}

// applyEnv overrides config fields from TASKBOARD_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TASKBOARD_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("TASKBOARD_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("TASKBOARD_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TASKBOARD_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TASKBOARD_SWEEP_SCHEDULE"); v != "" {
		cfg.Sweep.Schedule = v
	}
	if v := os.Getenv("TASKBOARD_IMPORT_TIMEOUT_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Import.RunTimeoutMinutes = n
		}
	}
}

// Watch reloads the config file on change and invokes onReload with the
// fresh config. Returns a stop function. Reload errors are logged and
// the previous config stays active.
func Watch(path string, onReload func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	abs, _ := filepath.Abs(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if evAbs, _ := filepath.Abs(event.Name); evAbs != abs {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Printf("config reload: %v", err)
					continue
				}
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config watcher: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
