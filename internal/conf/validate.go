package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded configuration for values the pipeline
// cannot run with. Invalid per-class parameters are corrected to the
// documented defaults instead of failing startup, a warning is left to the
// caller's log via the returned corrections.
func ValidateSettings(settings *Settings) error {
	if err := validateClassConfig("bark", &settings.Detectors.Bark); err != nil {
		return err
	}
	if err := validateClassConfig("thunder", &settings.Detectors.Thunder); err != nil {
		return err
	}

	if settings.Correlation.WindowMinutes <= 0 {
		settings.Correlation.WindowMinutes = 30
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no output database enabled, enable either sqlite or mysql output")
	}
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return fmt.Errorf("both sqlite and mysql output enabled, enable only one")
	}

	return nil
}

func validateClassConfig(class string, cfg *ClassConfig) error {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return fmt.Errorf("detector %s: threshold must be between 0.0 and 1.0, got %v", class, cfg.Threshold)
	}
	if cfg.ConsecutiveRequired < 1 {
		return fmt.Errorf("detector %s: consecutiverequired must be at least 1, got %d", class, cfg.ConsecutiveRequired)
	}
	if cfg.CooldownSeconds < 0 {
		return fmt.Errorf("detector %s: cooldownseconds must not be negative, got %v", class, cfg.CooldownSeconds)
	}
	return nil
}
