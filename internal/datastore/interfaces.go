// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations of the event store. Writers are one-per-class (the owning
// confirmation state machine); reads may run concurrently with writes.
type Interface interface {
	Open() error
	Close() error

	// AppendOrUpdateEvent inserts a new event or updates a still-open
	// (non finalized) event in place. Updating a finalized event is refused.
	AppendOrUpdateEvent(event *Event) error

	// FinalizeEvent marks an event immutable. Idempotent.
	FinalizeEvent(id uint) error

	GetEvent(id uint) (Event, error)

	// QueryEvents returns finalized and open events of a class with
	// BeginTime in [start, end), ordered by BeginTime.
	QueryEvents(class string, start, end time.Time) ([]Event, error)

	// EventsForDay returns a class's events for one ISO day string.
	EventsForDay(class, day string) ([]Event, error)

	CountForDay(class, day string) (int, error)
	ListDays(class string) ([]string, error)

	DeleteRange(class string, start, end time.Time) error
	DeleteAll(class string) error

	// Analytics helpers, computed in SQL.
	HourlyCounts(class, date string) ([24]int, error)
	DailyCounts(class, startDate, endDate string) ([]DailyCount, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// AppendOrUpdateEvent inserts a new event or updates the currently open event
// of its class. The write is retried once on failure so that a confirmed
// event is not silently dropped; if the retry also fails the error is
// returned to the caller, which reports the event as lost.
func (ds *DataStore) AppendOrUpdateEvent(event *Event) error {
	event.Stamp()

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if event.ID == 0 {
			err = ds.DB.Create(event).Error
		} else {
			err = ds.updateOpenEvent(event)
		}
		if err == nil {
			return nil
		}
		getLogger().Warn("event write failed, retrying",
			"class", event.Class, "event_id", event.ID, "error", err)
	}

	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "append_or_update_event").
		Context("class", event.Class).
		Build()
}

// updateOpenEvent rewrites an open event row inside a transaction, refusing
// to touch a row that has already been finalized.
func (ds *DataStore) updateOpenEvent(event *Event) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var current Event
		if err := tx.First(&current, event.ID).Error; err != nil {
			return fmt.Errorf("loading event %d: %w", event.ID, err)
		}
		if current.Finalized {
			return errors.Newf("event %d is finalized and immutable", event.ID).
				Component("datastore").
				Category(errors.CategoryState).
				Build()
		}
		return tx.Model(&Event{}).Where("id = ?", event.ID).Updates(map[string]any{
			"end_time":        event.EndTime,
			"peak_confidence": event.PeakConfidence,
			"avg_confidence":  event.AvgConfidence,
			"sample_count":    event.SampleCount,
		}).Error
	})
}

// FinalizeEvent marks the event immutable.
func (ds *DataStore) FinalizeEvent(id uint) error {
	if err := ds.DB.Model(&Event{}).Where("id = ?", id).Update("finalized", true).Error; err != nil {
		return fmt.Errorf("finalizing event %d: %w", id, err)
	}
	return nil
}

// GetEvent retrieves an event by its ID.
func (ds *DataStore) GetEvent(id uint) (Event, error) {
	var event Event
	if err := ds.DB.First(&event, id).Error; err != nil {
		return Event{}, fmt.Errorf("getting event %d: %w", id, err)
	}
	return event, nil
}

// QueryEvents returns a class's events with BeginTime in [start, end).
func (ds *DataStore) QueryEvents(class string, start, end time.Time) ([]Event, error) {
	var events []Event
	err := ds.DB.
		Where("class = ? AND begin_time >= ? AND begin_time < ?", class, start, end).
		Order("begin_time").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s events: %w", class, err)
	}
	return events, nil
}

// EventsForDay returns a class's events for one day, ordered by begin time.
func (ds *DataStore) EventsForDay(class, day string) ([]Event, error) {
	var events []Event
	err := ds.DB.
		Where("class = ? AND date = ?", class, day).
		Order("begin_time").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s events for %s: %w", class, day, err)
	}
	return events, nil
}

// CountForDay counts a class's events for one day.
func (ds *DataStore) CountForDay(class, day string) (int, error) {
	var count int64
	err := ds.DB.Model(&Event{}).
		Where("class = ? AND date = ?", class, day).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting %s events for %s: %w", class, day, err)
	}
	return int(count), nil
}

// ListDays returns the distinct days with events for a class, newest first.
func (ds *DataStore) ListDays(class string) ([]string, error) {
	var days []string
	err := ds.DB.Model(&Event{}).
		Where("class = ?", class).
		Distinct("date").
		Order("date DESC").
		Pluck("date", &days).Error
	if err != nil {
		return nil, fmt.Errorf("listing days for %s: %w", class, err)
	}
	return days, nil
}

// DeleteRange removes a class's events with BeginTime in [start, end).
func (ds *DataStore) DeleteRange(class string, start, end time.Time) error {
	err := ds.DB.
		Where("class = ? AND begin_time >= ? AND begin_time < ?", class, start, end).
		Delete(&Event{}).Error
	if err != nil {
		return fmt.Errorf("deleting %s events in range: %w", class, err)
	}
	return nil
}

// DeleteAll removes all events of a class.
func (ds *DataStore) DeleteAll(class string) error {
	if err := ds.DB.Where("class = ?", class).Delete(&Event{}).Error; err != nil {
		return fmt.Errorf("deleting all %s events: %w", class, err)
	}
	return nil
}
