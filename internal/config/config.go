// Package config provides configuration management for Cutline Studio.
// Configuration is loaded from environment variables with sensible defaults,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutline"
	DefaultSnapGrid = 0.25

	// Environment variable names
	EnvPort        = "CUTLINE_PORT"
	EnvLogLevel    = "CUTLINE_LOG_LEVEL"
	EnvDataDir     = "CUTLINE_DATA_DIR"
	EnvHeadless    = "CUTLINE_HEADLESS"
	EnvSnapGrid    = "CUTLINE_SNAP_GRID"
	EnvRenderURL   = "CUTLINE_RENDER_URL"
	EnvRenderToken = "CUTLINE_RENDER_TOKEN"
	EnvFFProbe     = "CUTLINE_FFPROBE"

	// Database filename
	DBFilename = "cutline.db"

	// Directory under the data dir holding uploaded media
	MediaDirname = "media"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	Headless() bool
	SnapGrid() float64
	RenderURL() string
	RenderToken() string
	FFProbe() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port        int
	logLevel    string
	dataDir     string
	headless    bool
	snapGrid    float64
	renderURL   string
	renderToken string
	ffprobe     string
}

// LoadEnvFile applies KEY=VALUE pairs from path without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		snapGrid: DefaultSnapGrid,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	// 0 disables snapping.
	if g := os.Getenv(EnvSnapGrid); g != "" {
		grid, err := strconv.ParseFloat(g, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSnapGrid, err)
		}
		if grid < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", EnvSnapGrid)
		}
		cfg.snapGrid = grid
	}

	cfg.renderURL = strings.TrimRight(os.Getenv(EnvRenderURL), "/")
	cfg.renderToken = os.Getenv(EnvRenderToken)
	cfg.ffprobe = os.Getenv(EnvFFProbe)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns where uploaded media files are stored
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, MediaDirname)
}

// Headless disables the system tray
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) SnapGrid() float64 {
	return c.snapGrid
}

// RenderURL is the remote render service; empty selects the simulator
func (c *EnvConfig) RenderURL() string {
	return c.renderURL
}

func (c *EnvConfig) RenderToken() string {
	return c.renderToken
}

// FFProbe is the probe binary; empty selects the placeholder prober
func (c *EnvConfig) FFProbe() string {
	return c.ffprobe
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
