package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the room finder service.
type Config struct {
	HTTPPort int
	// SQLiteDSN selects the SQLite store. Empty keeps reservations in memory.
	SQLiteDSN         string
	LogLevel          slog.Level
	DirectorySeed     uint64
	EmployeeCount     int
	AvailabilityCache int
}

// Load parses configuration values from the current process environment.
//
// Variables from envFiles are loaded first without overriding the process
// environment. With no envFiles a ".env" in the working directory is used when
// present. Invalid values are reported together in a single localized error.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:          8080,
		LogLevel:          slog.LevelInfo,
		DirectorySeed:     1,
		EmployeeCount:     48,
		AvailabilityCache: 1024,
	}

	invalid := make([]string, 0, 4)

	if portValue := lookup("ROOMFINDER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROOMFINDER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	cfg.SQLiteDSN = lookup("ROOMFINDER_SQLITE_DSN")

	if levelValue := lookup("ROOMFINDER_LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "ROOMFINDER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if seedValue := lookup("ROOMFINDER_DIRECTORY_SEED"); seedValue != "" {
		seed, err := strconv.ParseUint(seedValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "ROOMFINDER_DIRECTORY_SEED")
		} else {
			cfg.DirectorySeed = seed
		}
	}

	if countValue := lookup("ROOMFINDER_EMPLOYEE_COUNT"); countValue != "" {
		count, err := strconv.Atoi(countValue)
		if err != nil || count <= 0 {
			invalid = append(invalid, "ROOMFINDER_EMPLOYEE_COUNT")
		} else {
			cfg.EmployeeCount = count
		}
	}

	if cacheValue := lookup("ROOMFINDER_AVAILABILITY_CACHE"); cacheValue != "" {
		size, err := strconv.Atoi(cacheValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "ROOMFINDER_AVAILABILITY_CACHE")
		} else {
			cfg.AvailabilityCache = size
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("環境ファイルを読み込めません: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("環境ファイルを読み込めません: %w", err)
	}
	return nil
}
