package alarm

import (
	"fmt"
	"time"

	"subtrack/internal/config"
	"subtrack/internal/subtrack"
)

// Facility is an alarm backend the daemon can sweep: the scheduler-facing
// interface plus consumption of elapsed wake-ups.
type Facility interface {
	subtrack.AlarmFacility
	Elapsed(now time.Time) ([]Pending, error)
}

// NewFacilityFromConfig creates an alarm facility based on the config type.
func NewFacilityFromConfig(cfg config.AlarmConfig) (Facility, error) {
	switch cfg.Type {
	case "filesystem", "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for filesystem alarms")
		}
		return NewFileAlarms(cfg.Dir)
	case "memory":
		return NewMemoryAlarms(), nil
	default:
		return nil, fmt.Errorf("unknown alarm facility type: %s", cfg.Type)
	}
}
