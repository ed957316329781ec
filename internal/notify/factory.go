package notify

import (
	"fmt"
	"os"

	"subtrack/internal/config"
	"subtrack/internal/subtrack"
)

// NewNotifierFromConfig creates a notification facility based on the config type.
func NewNotifierFromConfig(cfg config.NotifyConfig) (subtrack.NotificationFacility, error) {
	switch cfg.Type {
	case "terminal", "":
		return NewTerminalNotifier(os.Stdout, cfg.Dir), nil
	case "memory":
		return NewMemoryNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}
