package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var allKeys = []string{
	"ROOMFINDER_HTTP_PORT",
	"ROOMFINDER_SQLITE_DSN",
	"ROOMFINDER_LOG_LEVEL",
	"ROOMFINDER_DIRECTORY_SEED",
	"ROOMFINDER_EMPLOYEE_COUNT",
	"ROOMFINDER_AVAILABILITY_CACHE",
}

// clearEnv unsets every key and restores the previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	return path
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(writeEnvFile(t, ""))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "" {
			t.Fatalf("expected in-memory store by default, got DSN %q", cfg.SQLiteDSN)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info level, got %s", cfg.LogLevel)
		}
		if cfg.DirectorySeed != 1 || cfg.EmployeeCount != 48 || cfg.AvailabilityCache != 1024 {
			t.Fatalf("unexpected directory defaults: %+v", cfg)
		}
	})

	t.Run("parses numeric and level fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMFINDER_HTTP_PORT", "9090")
		t.Setenv("ROOMFINDER_SQLITE_DSN", "file:/tmp/roomfinder.db")
		t.Setenv("ROOMFINDER_LOG_LEVEL", "debug")
		t.Setenv("ROOMFINDER_DIRECTORY_SEED", "42")
		t.Setenv("ROOMFINDER_EMPLOYEE_COUNT", "120")
		t.Setenv("ROOMFINDER_AVAILABILITY_CACHE", "64")

		cfg, err := Load(writeEnvFile(t, ""))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/roomfinder.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug level, got %s", cfg.LogLevel)
		}
		if cfg.DirectorySeed != 42 || cfg.EmployeeCount != 120 || cfg.AvailabilityCache != 64 {
			t.Fatalf("unexpected directory settings: %+v", cfg)
		}
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMFINDER_HTTP_PORT", "http")
		t.Setenv("ROOMFINDER_LOG_LEVEL", "chatty")
		t.Setenv("ROOMFINDER_EMPLOYEE_COUNT", "0")

		_, err := Load(writeEnvFile(t, ""))
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: ROOMFINDER_HTTP_PORT, ROOMFINDER_LOG_LEVEL, ROOMFINDER_EMPLOYEE_COUNT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reads env files without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMFINDER_HTTP_PORT", "7070")
		path := writeEnvFile(t, "ROOMFINDER_HTTP_PORT=6060\nROOMFINDER_EMPLOYEE_COUNT=12\n")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected process environment to win, got %d", cfg.HTTPPort)
		}
		if cfg.EmployeeCount != 12 {
			t.Fatalf("expected employee count from env file, got %d", cfg.EmployeeCount)
		}
	})

	t.Run("errors on a missing env file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err == nil {
			t.Fatal("expected error for missing env file")
		}
	})
}
