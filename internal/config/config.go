package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath       string
	DataDir      string
	SourcesPath  string
	KeywordsPath string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Collection settings
	WorkerCount   int
	FetchTimeout  time.Duration
	FetchAttempts int
	Lookback      time.Duration
	Schedule      string

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:        DefaultDBPath,
		DataDir:       DefaultDataDir,
		SourcesPath:   DefaultSourcesPath,
		KeywordsPath:  DefaultKeywordsPath,
		ServerHost:    DefaultServerHost,
		ServerPort:    DefaultServerPort,
		APIKey:        GetEnvString("MONITOR_API_KEY", ""),
		WorkerCount:   DefaultWorkerCount,
		FetchTimeout:  DefaultFetchTimeoutSec * time.Second,
		FetchAttempts: DefaultFetchAttempts,
		Lookback:      DefaultLookbackHours * time.Hour,
		Schedule:      DefaultSchedule,
		LogLevel:      logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SnapshotsDir returns the directory where raw snapshot mirrors are written.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// DiffsDir returns the directory where change diff artifacts are written.
func (c *Config) DiffsDir() string {
	return filepath.Join(c.DataDir, "diffs")
}

// ReportsDir returns the directory where rendered weekly reports are written.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// EnsureDataDirs creates the data directory tree if it does not exist.
func (c *Config) EnsureDataDirs() error {
	for _, dir := range []string{c.SnapshotsDir(), c.DiffsDir(), c.ReportsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	return nil
}
