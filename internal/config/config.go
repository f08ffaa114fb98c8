// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Log output formats accepted by LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken             string
	GitHubAPIURL            string
	GitHubRequestsPerSecond float64

	ListenAddr string

	DatabaseURL          string
	DBQueryLog           bool
	DBSlowQueryThreshold time.Duration

	ConfigOutputDir string

	LogLevel  slog.Level
	LogFormat string
}

// HasGitHubToken reports whether a provider credential is configured. Without
// one the provider client runs unauthenticated.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// LoadDotEnv seeds the process environment from the named files. Variables
// already set in the environment are left alone, and a missing file is not an
// error.
func LoadDotEnv(filenames ...string) error {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional. Defaults: PORT (3000), HOST (all interfaces),
// DATABASE_URL (prgate.db), GITHUB_REQUESTS_PER_SECOND (10),
// CONFIG_OUTPUT_DIR (.), LOG_LEVEL (info), LOG_FORMAT (text),
// DB_QUERY_LOG (false), DB_SLOW_QUERY_THRESHOLD (200ms).
func Load() (*Config, error) {
	port := "3000"
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > math.MaxUint16 {
			return nil, fmt.Errorf("PORT has invalid port %q", v)
		}
		port = v
	}

	rps := 10.0
	if v, ok := os.LookupEnv("GITHUB_REQUESTS_PER_SECOND"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("GITHUB_REQUESTS_PER_SECOND has invalid number %q: %w", v, err)
		}
		rps = parsed
	}

	dbURL := "prgate.db"
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		dbURL = v
	}

	queryLog := false
	if v, ok := os.LookupEnv("DB_QUERY_LOG"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DB_QUERY_LOG has invalid boolean %q: %w", v, err)
		}
		queryLog = parsed
	}

	slowQuery := 200 * time.Millisecond
	if v, ok := os.LookupEnv("DB_SLOW_QUERY_THRESHOLD"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DB_SLOW_QUERY_THRESHOLD has invalid duration %q: %w", v, err)
		}
		slowQuery = parsed
	}

	outputDir := "."
	if v, ok := os.LookupEnv("CONFIG_OUTPUT_DIR"); ok && v != "" {
		outputDir = v
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	format := LogFormatText
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		switch f := strings.ToLower(v); f {
		case LogFormatText, LogFormatJSON:
			format = f
		default:
			return nil, fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, v)
		}
	}

	return &Config{
		GitHubToken:             os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:            os.Getenv("GITHUB_API_URL"),
		GitHubRequestsPerSecond: rps,
		ListenAddr:              net.JoinHostPort(os.Getenv("HOST"), port),
		DatabaseURL:             dbURL,
		DBQueryLog:              queryLog,
		DBSlowQueryThreshold:    slowQuery,
		ConfigOutputDir:         outputDir,
		LogLevel:                level,
		LogFormat:               format,
	}, nil
}

// NewLogger builds the process logger for the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
