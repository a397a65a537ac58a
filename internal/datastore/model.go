// model.go this code defines the data model for the application
package datastore

import (
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
)

// Event represents a single confirmed acoustic event for one tracked class.
// An event row is mutable only while Finalized is false, which is the case
// for at most one event per class (the one still inside its merge window).
type Event struct {
	ID             uint      `gorm:"primaryKey"`
	Class          string    `gorm:"index:idx_events_class_begin;index:idx_events_class_date"`
	Date           string    `gorm:"index:idx_events_class_date"` // event day, ISO 8601, from BeginTime local time
	Hour           int       // local hour of BeginTime, 0-23
	BeginTime      time.Time `gorm:"index:idx_events_class_begin"`
	EndTime        time.Time
	PeakConfidence float64
	AvgConfidence  float64
	SampleCount    int
	Finalized      bool
}

// Stamp fills the denormalized Date and Hour columns from BeginTime.
func (e *Event) Stamp() {
	local := e.BeginTime.Local()
	e.Date = local.Format("2006-01-02")
	e.Hour = local.Hour()
}

// Duration returns the event length, floored at one classification window
// since a confirmed event always covers at least one full window of audio.
func (e *Event) Duration() time.Duration {
	d := e.EndTime.Sub(e.BeginTime)
	if minimum := time.Duration(conf.WindowSeconds * float64(time.Second)); d < minimum {
		return minimum
	}
	return d
}

// DailyCount represents event counts grouped by day.
type DailyCount struct {
	Date  string
	Count int
}
