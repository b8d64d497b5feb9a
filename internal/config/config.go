package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for taborderd.
type Config struct {
	// Listener
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Durable state
	SettingsFile      string
	JournalFile       string
	JournalMaxSizeMB  int
	JournalBufferSize int

	// Event handling
	RetryDelay    time.Duration
	BridgeTimeout time.Duration

	// Optional managed browser
	LaunchBrowser bool
	ExtensionDir  string
	ProfileDir    string
	CDPAddress    string
	CDPPort       int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:          getEnvOrDefault("TABORDER_BIND_ADDR", "127.0.0.1:8199"),
		PortCandidates:    splitList(getEnvOrDefault("TABORDER_PORT_CANDIDATES", "127.0.0.1:8200,127.0.0.1:8201,127.0.0.1:8202")),
		PortAutoFallback:  getEnvBoolOrDefault("TABORDER_PORT_AUTO_FALLBACK", true),
		LogLevel:          strings.ToLower(getEnvOrDefault("TABORDER_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("TABORDER_LOG_FILE", "logs/taborderd.log"),
		SettingsFile:      getEnvOrDefault("TABORDER_SETTINGS_FILE", "./taborder_data/settings.yaml"),
		JournalFile:       getEnvOrDefault("TABORDER_JOURNAL_FILE", "./taborder_data/decisions.jsonl"),
		JournalMaxSizeMB:  getEnvIntOrDefault("TABORDER_JOURNAL_MAX_SIZE_MB", 50),
		JournalBufferSize: getEnvIntOrDefault("TABORDER_JOURNAL_BUFFER_SIZE", 1024),
		RetryDelay:        time.Duration(getEnvIntOrDefault("TABORDER_RETRY_DELAY_MS", 100)) * time.Millisecond,
		BridgeTimeout:     time.Duration(getEnvIntOrDefault("TABORDER_BRIDGE_TIMEOUT_MS", 5000)) * time.Millisecond,
		LaunchBrowser:     getEnvBoolOrDefault("TABORDER_LAUNCH_BROWSER", false),
		ExtensionDir:      getEnvOrDefault("TABORDER_EXTENSION_DIR", "./taborder_data/extension"),
		ProfileDir:        getEnvOrDefault("TABORDER_PROFILE_DIR", "./taborder_data/profile"),
		CDPAddress:        getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:           getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9230),
	}

	if cfg.RetryDelay < 10*time.Millisecond {
		cfg.RetryDelay = 10 * time.Millisecond
	}
	if cfg.BridgeTimeout < time.Second {
		cfg.BridgeTimeout = time.Second
	}
	if cfg.JournalMaxSizeMB < 1 {
		cfg.JournalMaxSizeMB = 1
	}
	if cfg.JournalBufferSize < 1 {
		return nil, fmt.Errorf("TABORDER_JOURNAL_BUFFER_SIZE must be positive, got %d", cfg.JournalBufferSize)
	}
	if cfg.SettingsFile == "" {
		return nil, fmt.Errorf("TABORDER_SETTINGS_FILE must not be empty")
	}

	return cfg, nil
}

// BridgeURL returns the WebSocket URL the shim dials for a given bind address.
func BridgeURL(addr string) string {
	return "ws://" + addr + "/bridge"
}

// CDPURL returns the CDP HTTP endpoint of the managed browser.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
