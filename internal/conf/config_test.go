package conf

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings(t *testing.T) *Settings {
	t.Helper()
	viper.Reset()
	setDefaultConfig()

	settings := &Settings{}
	require.NoError(t, viper.Unmarshal(settings))
	return settings
}

func TestDefaultSettings(t *testing.T) {
	settings := defaultSettings(t)

	assert.False(t, settings.Debug)
	assert.Equal(t, "BarkWatch-Go", settings.Main.Name)

	assert.True(t, settings.Detectors.Bark.Enabled)
	assert.InDelta(t, 0.65, settings.Detectors.Bark.Threshold, 1e-9)
	assert.Equal(t, 2, settings.Detectors.Bark.ConsecutiveRequired)
	assert.InDelta(t, 2.0, settings.Detectors.Bark.CooldownSeconds, 1e-9)

	assert.True(t, settings.Detectors.Thunder.Enabled)
	assert.InDelta(t, 0.55, settings.Detectors.Thunder.Threshold, 1e-9)

	assert.Equal(t, 30, settings.Correlation.WindowMinutes)

	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, "barkwatch.db", settings.Output.SQLite.Path)
	assert.False(t, settings.Output.MySQL.Enabled)

	require.NoError(t, ValidateSettings(settings))
}

func TestValidateSettingsRejectsBadThreshold(t *testing.T) {
	settings := defaultSettings(t)
	settings.Detectors.Bark.Threshold = 1.5

	assert.Error(t, ValidateSettings(settings))
}

func TestValidateSettingsRejectsZeroConsecutive(t *testing.T) {
	settings := defaultSettings(t)
	settings.Detectors.Thunder.ConsecutiveRequired = 0

	assert.Error(t, ValidateSettings(settings))
}

func TestValidateSettingsCorrectsCorrelationWindow(t *testing.T) {
	settings := defaultSettings(t)
	settings.Correlation.WindowMinutes = -5

	require.NoError(t, ValidateSettings(settings))
	assert.Equal(t, 30, settings.Correlation.WindowMinutes)
}

func TestValidateSettingsRequiresExactlyOneDatabase(t *testing.T) {
	settings := defaultSettings(t)

	settings.Output.SQLite.Enabled = false
	assert.Error(t, ValidateSettings(settings))

	settings.Output.SQLite.Enabled = true
	settings.Output.MySQL.Enabled = true
	assert.Error(t, ValidateSettings(settings))
}

func TestClassConfigs(t *testing.T) {
	settings := defaultSettings(t)

	configs := settings.ClassConfigs()
	require.Len(t, configs, 2)
	assert.Equal(t, settings.Detectors.Bark, configs[ClassBark])
	assert.Equal(t, settings.Detectors.Thunder, configs[ClassThunder])
}

func TestWindowGeometry(t *testing.T) {
	assert.Equal(t, 15360, WindowSamples)
	assert.Equal(t, 7680, HopSamples)
	assert.Equal(t, 30720, WindowBytes)
	assert.Equal(t, 15360, HopBytes)
}
