// Package detection implements the per-class event confirmation state
// machine: it turns a stream of noisy per-window confidence scores into
// stable, de-duplicated, persisted events.
package detection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/looplab/fsm"
)

// Detector states.
const (
	StateIdle     = "idle"     // no run in progress
	StateArming   = "arming"   // run in progress, below the consecutive requirement
	StateCooldown = "cooldown" // event confirmed, inside the sliding merge window
)

// fsm transition events
const (
	eventArm     = "arm"
	eventConfirm = "confirm"
	eventReset   = "reset"
	eventExpire  = "expire"
)

// Sample is one per-window confidence observation for a detector's class.
type Sample struct {
	Timestamp  time.Time
	Confidence float64
}

// ErrOutOfOrder is returned when a sample does not advance the clock.
// The sample is dropped and the detector state is unaffected.
var ErrOutOfOrder = errors.Newf("sample timestamp is not after the previous sample").
	Component("detection").
	Category(errors.CategoryValidation).
	Build()

// EventFunc is called with every finalized event.
type EventFunc func(event *datastore.Event)

// Detector is the confirmation state machine for a single tracked class.
// Samples arrive from a single goroutine in strict window arrival order;
// mu serializes Close against it so shutdown can finalize from another
// goroutine.
type Detector struct {
	class   string
	cfg     conf.ClassConfig
	store   datastore.Interface
	machine *fsm.FSM
	onEvent EventFunc
	logger  *slog.Logger
	mu      sync.Mutex

	// detection run, valid while arming
	runStart time.Time
	count    int
	peak     float64
	sum      float64

	// open event, valid while in cooldown
	open     *datastore.Event
	deadline time.Time

	lastTimestamp time.Time
}

// NewDetector creates a detector for one class. onEvent may be nil.
func NewDetector(class string, cfg conf.ClassConfig, store datastore.Interface, onEvent EventFunc, logger *slog.Logger) *Detector {
	return &Detector{
		class:   class,
		cfg:     cfg,
		store:   store,
		onEvent: onEvent,
		logger:  logger.With("class", class),
		machine: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: eventArm, Src: []string{StateIdle}, Dst: StateArming},
				{Name: eventConfirm, Src: []string{StateArming}, Dst: StateCooldown},
				{Name: eventReset, Src: []string{StateArming}, Dst: StateIdle},
				{Name: eventExpire, Src: []string{StateCooldown}, Dst: StateIdle},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the current state name.
func (d *Detector) State() string {
	return d.machine.Current()
}

// Class returns the tracked class id this detector owns.
func (d *Detector) Class() string {
	return d.class
}

// Process feeds one score sample through the state machine. Samples must
// carry strictly increasing timestamps; a stale sample is dropped with
// ErrOutOfOrder and does not change state.
func (d *Detector) Process(sample Sample) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastTimestamp.IsZero() && !sample.Timestamp.After(d.lastTimestamp) {
		d.logger.Warn("dropping out-of-order sample",
			"timestamp", sample.Timestamp,
			"previous", d.lastTimestamp)
		return ErrOutOfOrder
	}
	d.lastTimestamp = sample.Timestamp

	if d.machine.Current() == StateCooldown {
		// Inclusive boundary: a sample exactly at the deadline still merges.
		if sample.Timestamp.After(d.deadline) {
			d.finalizeOpen()
			d.transition(eventExpire)
			// fall through and re-evaluate this sample from idle
		} else {
			if sample.Confidence >= d.cfg.Threshold {
				d.merge(sample)
			}
			// a sub-threshold sample inside the cooldown changes nothing
			return nil
		}
	}

	switch d.machine.Current() {
	case StateIdle:
		if sample.Confidence >= d.cfg.Threshold {
			d.transition(eventArm)
			d.runStart = sample.Timestamp
			d.count = 1
			d.peak = sample.Confidence
			d.sum = sample.Confidence
			d.confirmIfReady(sample)
		}

	case StateArming:
		if sample.Confidence < d.cfg.Threshold {
			d.transition(eventReset)
			d.resetRun()
			return nil
		}
		d.count++
		d.sum += sample.Confidence
		if sample.Confidence > d.peak {
			d.peak = sample.Confidence
		}
		d.confirmIfReady(sample)
	}

	return nil
}

// confirmIfReady promotes the current run into a confirmed open event once
// the consecutive requirement is met.
func (d *Detector) confirmIfReady(sample Sample) {
	if d.count < d.cfg.ConsecutiveRequired {
		return
	}

	d.open = &datastore.Event{
		Class:          d.class,
		BeginTime:      d.runStart,
		EndTime:        sample.Timestamp,
		PeakConfidence: d.peak,
		AvgConfidence:  d.sum / float64(d.count),
		SampleCount:    d.count,
	}
	d.deadline = sample.Timestamp.Add(d.cooldown())
	d.transition(eventConfirm)
	d.resetRun()

	d.persistOpen()
	d.logger.Info("event confirmed",
		"begin", d.open.BeginTime,
		"peak_confidence", d.open.PeakConfidence)
}

// merge extends the open event with a qualifying sample inside the cooldown
// and refreshes the sliding deadline.
func (d *Detector) merge(sample Sample) {
	d.open.EndTime = sample.Timestamp
	if sample.Confidence > d.open.PeakConfidence {
		d.open.PeakConfidence = sample.Confidence
	}
	d.open.AvgConfidence = (d.open.AvgConfidence*float64(d.open.SampleCount) + sample.Confidence) /
		float64(d.open.SampleCount+1)
	d.open.SampleCount++
	d.deadline = sample.Timestamp.Add(d.cooldown())

	d.persistOpen()
}

// finalizeOpen persists the open event one last time and marks it immutable.
func (d *Detector) finalizeOpen() {
	if d.open == nil {
		return
	}

	d.persistOpen()
	if d.open.ID != 0 {
		if err := d.store.FinalizeEvent(d.open.ID); err != nil {
			d.logger.Error("failed to finalize event", "event_id", d.open.ID, "error", err)
		}
		d.open.Finalized = true
	}

	if d.onEvent != nil {
		d.onEvent(d.open)
	}
	d.logger.Info("event finalized",
		"begin", d.open.BeginTime,
		"end", d.open.EndTime,
		"samples", d.open.SampleCount)
	d.open = nil
}

// persistOpen writes the open event. The store already retries once; if the
// write still fails the event stays in memory and is retried on the next
// merge or on finalization. An event whose finalization write also fails is
// reported lost here, that is the documented failure mode.
func (d *Detector) persistOpen() {
	if err := d.store.AppendOrUpdateEvent(d.open); err != nil {
		d.logger.Error("event write failed, holding event in memory for retry",
			"class", d.class,
			"begin", d.open.BeginTime,
			"error", err)
	}
}

// Close signals stream closure: an incomplete run is discarded, a pending
// open event is finalized immediately. Safe to call while another goroutine
// is still feeding Process.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.machine.Current() {
	case StateArming:
		d.transition(eventReset)
		d.resetRun()
	case StateCooldown:
		d.finalizeOpen()
		d.transition(eventExpire)
	}
}

func (d *Detector) resetRun() {
	d.runStart = time.Time{}
	d.count = 0
	d.peak = 0
	d.sum = 0
}

func (d *Detector) cooldown() time.Duration {
	return time.Duration(d.cfg.CooldownSeconds * float64(time.Second))
}

func (d *Detector) transition(event string) {
	if err := d.machine.Event(context.Background(), event); err != nil {
		// transitions are driven only from Process/Close, this indicates a bug
		d.logger.Error("invalid state transition", "event", event, "state", d.machine.Current(), "error", err)
	}
}
