// conf/consts.go fixed audio pipeline parameters
package conf

const (
	// SampleRate is the fixed capture sample rate required by YAMNet.
	SampleRate = 16000

	// NumChannels is the number of capture channels, mono only.
	NumChannels = 1

	// BitDepth is the capture bit depth of PCM data.
	BitDepth = 16

	// WindowSeconds is the duration of one classification window.
	WindowSeconds = 0.96

	// HopSeconds is the advance between successive window start times.
	// Hop is half the window, consecutive windows overlap by 50%.
	HopSeconds = 0.48

	// WindowSamples is the number of samples in one classification window.
	WindowSamples = int(SampleRate * WindowSeconds)

	// HopSamples is the number of samples in one hop.
	HopSamples = int(SampleRate * HopSeconds)

	// WindowBytes is the byte length of one window of 16-bit PCM data.
	WindowBytes = WindowSamples * (BitDepth / 8)

	// HopBytes is the byte length of one hop of 16-bit PCM data.
	HopBytes = HopSamples * (BitDepth / 8)
)

// Tracked class identifiers. One confirmation state machine instance
// exists per enabled class, they never share state.
const (
	ClassBark    = "bark"
	ClassThunder = "thunder"
)
