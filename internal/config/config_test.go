package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"taskboard/internal/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %q", cfg.Database.Driver)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  addr: \":9090\"\ndatabase:\n  driver: mysql\n  dsn: \"root:pw@tcp(localhost:3306)/taskboard\"\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("expected driver mysql, got %q", cfg.Database.Driver)
	}
	// Unset sections keep defaults.
	if cfg.Import.RunTimeoutMinutes != 5 {
		t.Errorf("expected default import timeout 5, got %d", cfg.Import.RunTimeoutMinutes)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKBOARD_ADDR", ":7070")
	t.Setenv("TASKBOARD_DB_DRIVER", "mysql")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env addr :7070, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("expected env driver mysql, got %q", cfg.Database.Driver)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
