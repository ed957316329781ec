package settings

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// legacyFile is the shape of the old unencrypted preference store.
type legacyFile struct {
	Values map[string]string `toml:"values"`
}

// MigrateLegacy copies every entry of the legacy plaintext store at
// legacyPath into dst and then removes the legacy file. The presence of any
// legacy entry is the trigger — there is no version flag — so after one
// successful migration the legacy file is gone and this becomes a no-op.
// Returns how many entries were migrated.
func MigrateLegacy(dst *EncryptedStore, legacyPath string) (int, error) {
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil // nothing to migrate
		}
		return 0, fmt.Errorf("reading legacy settings: %w", err)
	}

	var f legacyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("decoding legacy settings: %w", err)
	}
	if len(f.Values) == 0 {
		// Empty legacy store: clear it without copying anything.
		if err := os.Remove(legacyPath); err != nil {
			return 0, fmt.Errorf("removing legacy settings: %w", err)
		}
		return 0, nil
	}

	for name, value := range f.Values {
		if err := dst.set(name, value); err != nil {
			return 0, fmt.Errorf("migrating setting %s: %w", name, err)
		}
	}

	if err := os.Remove(legacyPath); err != nil {
		return 0, fmt.Errorf("clearing legacy settings: %w", err)
	}
	return len(f.Values), nil
}
