// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the config reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "TOKEN_SECRET", "TOKEN_TTL", "LOCK_SCOPE", "EVENT_BUFFER", "DEBUG", "CONFIG_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("LOCK_SCOPE", "global")
	t.Setenv("TOKEN_TTL", "30m")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if cfg.LockScope != "global" {
		t.Errorf("expected global lock scope, got %q", cfg.LockScope)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("expected 30m token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.EventBuffer != 64 {
		t.Errorf("expected default event buffer 64, got %d", cfg.EventBuffer)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-token-secret", "s1", "-debug=false"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.Debug {
		t.Error("CLI should override env: expected debug off")
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default sqlite, got %q", cfg.DatabaseType)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "quorumvote.yaml")
	content := "port: 7000\ndatabaseUrl: file:yaml.db\ntokenSecret: from-yaml\nlockScope: global\neventBuffer: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// env beats the file, flags beat env
	t.Setenv("TOKEN_SECRET", "from-env")

	cfg, err := ParseFlags([]string{"-c", path, "-p", "7100"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 7100 {
		t.Errorf("expected flag port 7100, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:yaml.db" {
		t.Errorf("expected database URL from file, got %q", cfg.DatabaseURL)
	}
	if cfg.TokenSecret != "from-env" {
		t.Errorf("expected secret from env, got %q", cfg.TokenSecret)
	}
	if cfg.LockScope != "global" || cfg.EventBuffer != 8 {
		t.Errorf("expected file values, got scope %q buffer %d", cfg.LockScope, cfg.EventBuffer)
	}
}

func TestParseFlags_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing database", []string{"-token-secret", "s"}, "database URL required"},
		{"missing secret", []string{"-d", "x.db"}, "TOKEN_SECRET required"},
		{"bad database type", []string{"-d", "x.db", "-token-secret", "s", "-t", "mysql"}, "unsupported database type"},
		{"bad lock scope", []string{"-d", "x.db", "-token-secret", "s", "-lock-scope", "table"}, "unsupported lock scope"},
		{"bad port", []string{"-d", "x.db", "-token-secret", "s", "-p", "70000"}, "invalid port"},
		{"bad buffer", []string{"-d", "x.db", "-token-secret", "s", "-event-buffer", "0"}, "event buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := ParseFlags(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseFlags() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
