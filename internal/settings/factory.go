package settings

import (
	"fmt"

	"subtrack/internal/config"
	"subtrack/internal/subtrack"
)

// NewSettingsFromConfig creates a Settings implementation based on the
// settings config type. For the encrypted store, any legacy plaintext store
// found at the configured path is migrated in and cleared before the store is
// returned.
func NewSettingsFromConfig(cfg config.SettingsConfig, passphrase string) (subtrack.Settings, error) {
	switch cfg.Type {
	case "encrypted", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for encrypted settings")
		}
		s, err := NewEncryptedStore(cfg.Path, passphrase)
		if err != nil {
			return nil, fmt.Errorf("opening encrypted settings: %w", err)
		}
		if cfg.LegacyPath != "" {
			if _, err := MigrateLegacy(s, cfg.LegacyPath); err != nil {
				return nil, fmt.Errorf("migrating legacy settings: %w", err)
			}
		}
		return s, nil
	case "memory":
		return NewMemorySettings(), nil
	default:
		return nil, fmt.Errorf("unknown settings type: %s", cfg.Type)
	}
}
