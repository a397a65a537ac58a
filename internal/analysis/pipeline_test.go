package analysis

import (
	"log/slog"
	"testing"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/detection"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	datastore.Interface
	events map[uint]*datastore.Event
	nextID uint
}

func (m *memStore) AppendOrUpdateEvent(event *datastore.Event) error {
	if event.ID == 0 {
		m.nextID++
		event.ID = m.nextID
	}
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *memStore) FinalizeEvent(id uint) error {
	m.events[id].Finalized = true
	return nil
}

func TestPipelineConfirmsEventFromScriptedScores(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Detectors.Bark = conf.ClassConfig{Enabled: true, Threshold: 0.65, ConsecutiveRequired: 2, CooldownSeconds: 2}

	classifier := &yamnet.StubClassifier{
		Scripted: []yamnet.Scores{
			{conf.ClassBark: 0.7},
			{conf.ClassBark: 0.8},
			{conf.ClassBark: 0.1},
		},
	}

	store := &memStore{events: make(map[uint]*datastore.Event)}

	var finalized []datastore.Event
	registry := detection.NewRegistry(settings, store, func(event *datastore.Event) {
		finalized = append(finalized, *event)
	}, slog.Default())

	pipeline := NewPipeline(classifier, registry, nil)

	begin := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	hop := time.Duration(conf.HopSeconds * float64(time.Second))
	window := make([]float32, conf.WindowSamples)
	for i := 0; i < 3; i++ {
		pipeline.ProcessWindow(window, begin.Add(time.Duration(i)*hop))
	}
	pipeline.Close()

	require.Len(t, finalized, 1)
	assert.Equal(t, conf.ClassBark, finalized[0].Class)
	assert.Equal(t, begin, finalized[0].BeginTime)
	assert.Equal(t, begin.Add(hop), finalized[0].EndTime)
	assert.True(t, finalized[0].Finalized)
	assert.Equal(t, 3, classifier.Calls())
}

func TestEnqueueEventsNeverBlocksOnFullQueue(t *testing.T) {
	t.Parallel()

	// queue of one, consumer absent: the second event must be dropped
	// rather than stalling the caller
	events := make(chan *datastore.Event, 1)
	enqueue := enqueueEvents(events)

	enqueue(&datastore.Event{Class: conf.ClassBark})

	done := make(chan struct{})
	go func() {
		defer close(done)
		enqueue(&datastore.Event{Class: conf.ClassBark})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	assert.Len(t, events, 1)
}
