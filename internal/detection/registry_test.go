package detection

import (
	"log/slog"
	"testing"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySkipsDisabledClasses(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Detectors.Bark = conf.ClassConfig{Enabled: true, Threshold: 0.65, ConsecutiveRequired: 2, CooldownSeconds: 2}
	settings.Detectors.Thunder = conf.ClassConfig{Enabled: false, Threshold: 0.55, ConsecutiveRequired: 2, CooldownSeconds: 2}

	store := newFakeStore()
	r := NewRegistry(settings, store, nil, slog.Default())

	require.NotNil(t, r.Detector(conf.ClassBark))
	assert.Nil(t, r.Detector(conf.ClassThunder))
	assert.Equal(t, []string{conf.ClassBark}, r.Classes())

	// thunder scores are ignored, qualifying bark scores confirm an event
	r.ProcessScores(at(0.00), yamnet.Scores{conf.ClassBark: 0.9, conf.ClassThunder: 0.99})
	r.ProcessScores(at(0.48), yamnet.Scores{conf.ClassBark: 0.9, conf.ClassThunder: 0.99})

	require.Len(t, store.events, 1)
	assert.Equal(t, conf.ClassBark, store.events[1].Class)
}

func TestRegistryCloseFinalizesAllDetectors(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Detectors.Bark = conf.ClassConfig{Enabled: true, Threshold: 0.65, ConsecutiveRequired: 1, CooldownSeconds: 2}
	settings.Detectors.Thunder = conf.ClassConfig{Enabled: true, Threshold: 0.55, ConsecutiveRequired: 1, CooldownSeconds: 2}

	store := newFakeStore()
	r := NewRegistry(settings, store, nil, slog.Default())

	r.ProcessScores(at(0.00), yamnet.Scores{conf.ClassBark: 0.9, conf.ClassThunder: 0.7})
	r.Close()

	require.Len(t, store.events, 2)
	for _, event := range store.events {
		assert.True(t, event.Finalized)
	}
}
