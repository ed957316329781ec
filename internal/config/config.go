package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for subtrack.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Timezone string         `toml:"timezone"` // IANA name; empty means local time
	Store    StoreConfig    `toml:"store"`
	Settings SettingsConfig `toml:"settings"`
	Alarms   AlarmConfig    `toml:"alarms"`
	Notify   NotifyConfig   `toml:"notify"`
	Backup   BackupConfig   `toml:"backup"`
}

// StoreConfig configures the live record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SettingsConfig configures the preference store.
type SettingsConfig struct {
	Type       string `toml:"type"`                  // "encrypted" or "memory"
	Path       string `toml:"path,omitempty"`        // encrypted store file
	LegacyPath string `toml:"legacy_path,omitempty"` // plaintext store migrated on first open
}

// AlarmConfig configures the alarm facility backend.
type AlarmConfig struct {
	Type string `toml:"type"`          // "filesystem" or "memory"
	Dir  string `toml:"dir,omitempty"` // only used for type=filesystem
}

// NotifyConfig configures the notification facility backend.
type NotifyConfig struct {
	Type string `toml:"type"`          // "terminal" or "memory"
	Dir  string `toml:"dir,omitempty"` // permission marker directory, type=terminal
}

// BackupConfig configures snapshot import/export sources.
// S3 fields are only consulted for s3:// import locations.
type BackupConfig struct {
	S3Region    string `toml:"s3_region,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// NewConfig creates a Config with default paths under baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Settings: SettingsConfig{
			Type:       "encrypted",
			Path:       filepath.Join(baseDir, "settings.toml"),
			LegacyPath: filepath.Join(baseDir, "settings.plain.toml"),
		},
		Alarms: AlarmConfig{
			Type: "filesystem",
			Dir:  filepath.Join(baseDir, "alarms"),
		},
		Notify: NotifyConfig{
			Type: "terminal",
			Dir:  filepath.Join(baseDir, "alarms"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
