package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAgentConfig(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName)
		content := `
postgresql:
  host: db.internal
  port: "5433"
  user: monitor
  pass: secret
  databases:
    - payments
    - reports
stats:
  diskstat: true
  indstat: true
log_level: DEBUG
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadAgentConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.PostgreSQL.Host != "db.internal" || cfg.PostgreSQL.Port != "5433" {
			t.Errorf("unexpected host/port %s:%s", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)
		}
		if cfg.PostgreSQL.AdminDB != "postgres" {
			t.Errorf("expected default admin database, got %q", cfg.PostgreSQL.AdminDB)
		}
		if len(cfg.PostgreSQL.Databases) != 2 || cfg.PostgreSQL.Databases[1] != "reports" {
			t.Errorf("unexpected databases %v", cfg.PostgreSQL.Databases)
		}
		if !cfg.Stats.Disk || cfg.Stats.Tuple || !cfg.Stats.Index {
			t.Errorf("unexpected stats flags %+v", cfg.Stats)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("expected DEBUG, got %s", cfg.LogLevel)
		}
	})

	t.Run("no file uses defaults", func(t *testing.T) {
		wd, _ := os.Getwd()
		defer os.Chdir(wd)
		if err := os.Chdir(t.TempDir()); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadAgentConfig("")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.PostgreSQL.Host != "127.0.0.1" || cfg.PostgreSQL.User != "postgres" {
			t.Errorf("unexpected defaults %+v", cfg.PostgreSQL)
		}
		if _, err := os.Stat(FileName); !os.IsNotExist(err) {
			t.Error("config file must not be created")
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadAgentConfig(filepath.Join(t.TempDir(), "nope.yml"))
		if err == nil {
			t.Fatal("expected error for missing explicit config file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName)
		if err := os.WriteFile(path, []byte("postgresql: [oops"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadAgentConfig(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("no databases", func(t *testing.T) {
		if err := Default().Validate(); err == nil {
			t.Fatal("expected validation error without databases")
		}
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Default()
		cfg.PostgreSQL.Databases = []string{"payments"}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty admin database", func(t *testing.T) {
		cfg := Default()
		cfg.PostgreSQL.Databases = []string{"payments"}
		cfg.PostgreSQL.AdminDB = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
