// config.go: This file contains the configuration for the BarkWatch-Go application.
// It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// ClassConfig holds the confirmation state machine parameters for one
// tracked class. Loaded once per monitoring session, immutable until restart.
type ClassConfig struct {
	Enabled             bool    // true to run a detector for this class
	Threshold           float64 // confidence threshold for a qualifying window
	ConsecutiveRequired int     // consecutive qualifying windows to confirm an event
	CooldownSeconds     float64 // sliding merge window after a confirmation
}

// DetectorSettings groups the per-class configurations.
type DetectorSettings struct {
	Bark    ClassConfig // primary class, always enabled
	Thunder ClassConfig // secondary class, Enabled flag honoured
}

// YAMNetSettings contains settings for the YAMNet classifier backend.
type YAMNetSettings struct {
	ModelPath    string // path to the YAMNet tflite model file
	ClassMapPath string // path to the class map CSV with display names
}

// AudioSettings contains settings for audio capture.
type AudioSettings struct {
	Source string // capture device to use, matched against device name or ID
}

// MQTTSettings contains settings for MQTT event publishing.
type MQTTSettings struct {
	Enabled  bool   // true to publish confirmed events over MQTT
	Broker   string // MQTT broker URI (tcp://host:port)
	Topic    string // topic prefix for published events
	Username string // MQTT username
	Password string // MQTT password
	Retain   bool   // true to retain the last event message at the broker
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to expose a /metrics endpoint
	Listen  string // listen address for the metrics server
}

// CorrelationSettings contains settings for the bark/thunder correlation engine.
type CorrelationSettings struct {
	WindowMinutes int // symmetric match window around a thunder event start
}

// RealtimeSettings contains all settings for the realtime monitoring session.
type RealtimeSettings struct {
	Audio     AudioSettings     // audio capture settings
	MQTT      MQTTSettings      // MQTT publishing settings
	Telemetry TelemetrySettings // telemetry endpoint settings
}

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to the log file
	Rotation RotationType // type of log rotation
	MaxSize  int64        // max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// Settings is the root configuration structure.
type Settings struct {
	Debug bool // true to enable debug output

	Main struct {
		Name string    // node name, also used as MQTT client id prefix
		Log  LogConfig // default log rotation configuration
	}

	Realtime    RealtimeSettings    // realtime session settings
	YAMNet      YAMNetSettings      // classifier backend settings
	Detectors   DetectorSettings    // per-class confirmation parameters
	Correlation CorrelationSettings // correlation engine settings

	Output struct {
		SQLite struct {
			Enabled bool   // true to enable sqlite output
			Path    string // path to sqlite database
		}
		MySQL struct {
			Enabled  bool   // true to enable mysql output
			Username string // username for mysql database
			Password string // password for mysql database
			Database string // database name for mysql database
			Host     string // host for mysql database
			Port     string // port for mysql database
		}
	}
}

// ClassConfigs returns the configured tracked classes keyed by class id,
// including disabled ones. Callers decide whether to honour Enabled.
func (s *Settings) ClassConfigs() map[string]ClassConfig {
	return map[string]ClassConfig{
		ClassBark:    s.Detectors.Bark,
		ClassThunder: s.Detectors.Thunder,
	}
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// A missing or unreadable config file is not fatal: the documented defaults
// are used instead so that a monitoring session can always start.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		// Fall back to defaults rather than failing startup.
		log.Printf("config file unavailable, using defaults: %v", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// Setting returns the current settings instance.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the config search paths: the current
// directory, then an OS appropriate per-user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("error resolving user directories: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return []string{
		".",
		filepath.Join(configDir, "barkwatch-go"),
	}, nil
}

// GetBasePath expands a possibly relative directory path and ensures it exists.
func GetBasePath(path string) string {
	if path == "" {
		path = "."
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Printf("failed to create directory %s: %v", path, err)
	}
	return path
}
