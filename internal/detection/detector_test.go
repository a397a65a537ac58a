package detection

import (
	"log/slog"
	"testing"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records event writes in memory. The embedded interface makes
// unimplemented methods panic, which is what we want in these tests.
type fakeStore struct {
	datastore.Interface
	events      map[uint]*datastore.Event
	nextID      uint
	appendCalls int
	failAppends int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[uint]*datastore.Event)}
}

func (f *fakeStore) AppendOrUpdateEvent(event *datastore.Event) error {
	f.appendCalls++
	if f.failAppends > 0 {
		f.failAppends--
		return errors.NewStd("simulated write failure")
	}
	if event.ID == 0 {
		f.nextID++
		event.ID = f.nextID
	}
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeStore) FinalizeEvent(id uint) error {
	event, ok := f.events[id]
	if !ok {
		return errors.NewStd("no such event")
	}
	event.Finalized = true
	return nil
}

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return testBase.Add(time.Duration(seconds * float64(time.Second)))
}

func barkConfig() conf.ClassConfig {
	return conf.ClassConfig{
		Enabled:             true,
		Threshold:           0.65,
		ConsecutiveRequired: 2,
		CooldownSeconds:     2.0,
	}
}

func newTestDetector(t *testing.T, cfg conf.ClassConfig, store datastore.Interface, onEvent EventFunc) *Detector {
	t.Helper()
	return NewDetector(conf.ClassBark, cfg, store, onEvent, slog.Default())
}

func feed(t *testing.T, d *Detector, samples ...Sample) {
	t.Helper()
	for _, s := range samples {
		require.NoError(t, d.Process(s))
	}
}

func TestDetectorConfirmsAfterConsecutiveHits(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		Sample{Timestamp: at(0.48), Confidence: 0.8},
		Sample{Timestamp: at(0.96), Confidence: 0.3},
	)

	// second hit confirms; the sub-threshold sample inside the cooldown
	// neither extends nor ends the event
	require.Equal(t, StateCooldown, d.State())
	require.Len(t, store.events, 1)
	event := store.events[1]
	assert.Equal(t, at(0.00), event.BeginTime)
	assert.Equal(t, at(0.48), event.EndTime)
	assert.InDelta(t, 0.8, event.PeakConfidence, 1e-9)
	assert.InDelta(t, 0.75, event.AvgConfidence, 1e-9)
	assert.Equal(t, 2, event.SampleCount)
	assert.False(t, event.Finalized)

	// deadline is 0.48+2.0=2.48; this sample is past it and sub-threshold
	feed(t, d, Sample{Timestamp: at(2.96), Confidence: 0.1})

	require.Equal(t, StateIdle, d.State())
	assert.True(t, store.events[1].Finalized)
	assert.Equal(t, at(0.48), store.events[1].EndTime)
}

func TestDetectorSingleHitBelowRequirementIsDiscarded(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.9},
		Sample{Timestamp: at(0.48), Confidence: 0.2},
	)

	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, store.events)
}

func TestDetectorMergesWithinCooldown(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		Sample{Timestamp: at(0.48), Confidence: 0.8},
		// deadline 2.48, this merges and slides it to 3.2
		Sample{Timestamp: at(1.20), Confidence: 0.9},
	)

	require.Len(t, store.events, 1)
	event := store.events[1]
	assert.Equal(t, at(0.00), event.BeginTime)
	assert.Equal(t, at(1.20), event.EndTime)
	assert.InDelta(t, 0.9, event.PeakConfidence, 1e-9)
	assert.Equal(t, 3, event.SampleCount)

	// 3.0 is before the refreshed deadline of 3.2, still one event
	feed(t, d, Sample{Timestamp: at(3.00), Confidence: 0.7})
	require.Len(t, store.events, 1)
	assert.Equal(t, at(3.00), store.events[1].EndTime)
	assert.Equal(t, 4, store.events[1].SampleCount)
}

func TestDetectorDeadlineBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		Sample{Timestamp: at(0.48), Confidence: 0.7},
		// exactly at the deadline 2.48: merges rather than starting anew
		Sample{Timestamp: at(2.48), Confidence: 0.7},
	)

	require.Equal(t, StateCooldown, d.State())
	require.Len(t, store.events, 1)
	assert.Equal(t, at(2.48), store.events[1].EndTime)
}

func TestDetectorReevaluatesSampleAfterExpiry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cfg := barkConfig()
	cfg.ConsecutiveRequired = 1
	d := newTestDetector(t, cfg, store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		// past the deadline of 2.0; finalizes the first event and, with
		// the requirement at 1, immediately confirms a second one
		Sample{Timestamp: at(5.00), Confidence: 0.8},
	)

	require.Len(t, store.events, 2)
	assert.True(t, store.events[1].Finalized)
	assert.False(t, store.events[2].Finalized)
	assert.Equal(t, at(5.00), store.events[2].BeginTime)

	// events never overlap and appear in order of arrival
	assert.True(t, store.events[1].EndTime.Before(store.events[2].BeginTime))
}

func TestDetectorDropsOutOfOrderSamples(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d, Sample{Timestamp: at(1.00), Confidence: 0.7})
	require.Equal(t, StateArming, d.State())

	err := d.Process(Sample{Timestamp: at(1.00), Confidence: 0.9})
	require.ErrorIs(t, err, ErrOutOfOrder)
	err = d.Process(Sample{Timestamp: at(0.52), Confidence: 0.9})
	require.ErrorIs(t, err, ErrOutOfOrder)

	// state untouched: the next in-order hit confirms as the second of two
	assert.Equal(t, StateArming, d.State())
	feed(t, d, Sample{Timestamp: at(1.48), Confidence: 0.7})
	assert.Equal(t, StateCooldown, d.State())
}

func TestDetectorCloseDiscardsArmingRun(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d, Sample{Timestamp: at(0.00), Confidence: 0.99})
	d.Close()

	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, store.events)
}

func TestDetectorCloseFinalizesOpenEvent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	var finalized []*datastore.Event
	d := newTestDetector(t, barkConfig(), store, func(event *datastore.Event) {
		finalized = append(finalized, event)
	})

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		Sample{Timestamp: at(0.48), Confidence: 0.8},
	)
	d.Close()

	assert.Equal(t, StateIdle, d.State())
	require.Len(t, store.events, 1)
	assert.True(t, store.events[1].Finalized)
	require.Len(t, finalized, 1)
	assert.Equal(t, at(0.48), finalized[0].EndTime)
}

func TestDetectorRetriesPersistenceOnLaterWrites(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failAppends = 1 // confirmation write fails, event stays in memory
	d := newTestDetector(t, barkConfig(), store, nil)

	feed(t, d,
		Sample{Timestamp: at(0.00), Confidence: 0.7},
		Sample{Timestamp: at(0.48), Confidence: 0.8},
	)
	require.Empty(t, store.events)

	// the merge write succeeds and creates the row with the merged state
	feed(t, d, Sample{Timestamp: at(1.20), Confidence: 0.9})
	require.Len(t, store.events, 1)
	assert.Equal(t, at(0.00), store.events[1].BeginTime)
	assert.Equal(t, 3, store.events[1].SampleCount)
}

func TestDetectorCloseWhileProcessingIsSafe(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newTestDetector(t, barkConfig(), store, nil)

	// one goroutine feeds samples while shutdown closes the detector,
	// the way a capture teardown overlaps a window still in flight
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = d.Process(Sample{Timestamp: at(float64(i) * 0.48), Confidence: 0.9})
		}
	}()

	d.Close()
	<-done
	d.Close()

	require.Equal(t, StateIdle, d.State())
	var lastBegin time.Time
	for id := uint(1); id <= uint(len(store.events)); id++ {
		event := store.events[id]
		require.NotNil(t, event)
		assert.True(t, event.Finalized, "event %d left open", id)
		assert.True(t, event.BeginTime.After(lastBegin), "event %d overlaps its predecessor", id)
		lastBegin = event.BeginTime
	}
}
