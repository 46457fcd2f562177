package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server
	ServerPort string

	// Audible catalog API (optional; empty token disables it)
	AudibleAPIURL      string
	AudibleToken       string
	AudibleMarketplace string

	// Sync
	DefaultOwnerID      int // owner used when requests carry none
	SyncIntervalSeconds int // scheduler fallback when no runtime setting exists

	// Encryption
	EncryptionSecret string // keys account-token encryption

	// Paths
	DatabaseFile string // $CONFIG_DIR/shelftrack.db
	TargetsFile  string // $CONFIG_DIR/targets.json
	TriggerFile  string // $CONFIG_DIR/sync-now.trigger

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AUDIBLE_API_URL", "https://api.audible.com")
	viper.SetDefault("AUDIBLE_MARKETPLACE", "us")
	viper.SetDefault("DEFAULT_OWNER_ID", 1)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 900)

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "shelftrack")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	secret := viper.GetString("ENCRYPTION_SECRET")
	if secretFile := viper.GetString("ENCRYPTION_SECRET_FILE"); secret == "" && secretFile != "" {
		raw, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ENCRYPTION_SECRET_FILE: %w", err)
		}
		secret = strings.TrimSpace(string(raw))
	}

	config := &Config{
		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Audible
		AudibleAPIURL:      viper.GetString("AUDIBLE_API_URL"),
		AudibleToken:       viper.GetString("AUDIBLE_TOKEN"),
		AudibleMarketplace: viper.GetString("AUDIBLE_MARKETPLACE"),

		// Sync
		DefaultOwnerID:      viper.GetInt("DEFAULT_OWNER_ID"),
		SyncIntervalSeconds: viper.GetInt("SYNC_INTERVAL_SECONDS"),

		// Encryption
		EncryptionSecret: secret,

		// Paths
		DatabaseFile: filepath.Join(configDir, "shelftrack.db"),
		TargetsFile:  filepath.Join(configDir, "targets.json"),
		TriggerFile:  filepath.Join(configDir, "sync-now.trigger"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.EncryptionSecret == "" {
		return nil, fmt.Errorf("ENCRYPTION_SECRET is required")
	}
	if config.SyncIntervalSeconds < 60 {
		return nil, fmt.Errorf("SYNC_INTERVAL_SECONDS must be at least 60")
	}

	return config, nil
}
