package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
)

// newTestStore opens an in-memory SQLite database with the event schema.
func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, performAutoMigration(db, "SQLite"))

	t.Cleanup(func() {
		require.NoError(t, closeDB(db))
	})

	return &DataStore{DB: db}
}

func testEvent(begin time.Time) *Event {
	return &Event{
		Class:          conf.ClassBark,
		BeginTime:      begin,
		EndTime:        begin.Add(2 * time.Second),
		PeakConfidence: 0.8,
		AvgConfidence:  0.75,
		SampleCount:    3,
	}
}

func TestAppendOrUpdateEventCreatesAndStamps(t *testing.T) {
	store := newTestStore(t)

	begin := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	event := testEvent(begin)
	require.NoError(t, store.AppendOrUpdateEvent(event))
	require.NotZero(t, event.ID)

	stored, err := store.GetEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, begin.Local().Format("2006-01-02"), stored.Date)
	assert.Equal(t, begin.Local().Hour(), stored.Hour)
	assert.False(t, stored.Finalized)
}

func TestAppendOrUpdateEventUpdatesOpenEvent(t *testing.T) {
	store := newTestStore(t)

	begin := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	event := testEvent(begin)
	require.NoError(t, store.AppendOrUpdateEvent(event))

	event.EndTime = begin.Add(5 * time.Second)
	event.PeakConfidence = 0.95
	event.SampleCount = 7
	require.NoError(t, store.AppendOrUpdateEvent(event))

	stored, err := store.GetEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.SampleCount)
	assert.InDelta(t, 0.95, stored.PeakConfidence, 1e-9)

	// updating did not create a second row
	events, err := store.QueryEvents(conf.ClassBark, begin.Add(-time.Hour), begin.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFinalizedEventIsImmutable(t *testing.T) {
	store := newTestStore(t)

	event := testEvent(time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC))
	require.NoError(t, store.AppendOrUpdateEvent(event))
	require.NoError(t, store.FinalizeEvent(event.ID))

	// idempotent
	require.NoError(t, store.FinalizeEvent(event.ID))

	event.PeakConfidence = 0.99
	err := store.AppendOrUpdateEvent(event)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))

	stored, err := store.GetEvent(event.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, stored.PeakConfidence, 1e-9)
	assert.True(t, stored.Finalized)
}

func TestQueryEventsRangeIsHalfOpen(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		require.NoError(t, store.AppendOrUpdateEvent(testEvent(base.Add(offset))))
	}

	events, err := store.QueryEvents(conf.ClassBark, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].BeginTime.Equal(base))
	assert.True(t, events[1].BeginTime.Equal(base.Add(time.Hour)))

	// repeated query returns identical results
	again, err := store.QueryEvents(conf.ClassBark, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, events, again)
}

func TestDeleteRangeAndDeleteAll(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		require.NoError(t, store.AppendOrUpdateEvent(testEvent(base.Add(offset))))
	}

	require.NoError(t, store.DeleteRange(conf.ClassBark, base, base.Add(time.Hour)))
	events, err := store.QueryEvents(conf.ClassBark, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NoError(t, store.DeleteAll(conf.ClassBark))
	events, err = store.QueryEvents(conf.ClassBark, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHourlyCountsZeroFillsEmptyHours(t *testing.T) {
	store := newTestStore(t)

	begin := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	require.NoError(t, store.AppendOrUpdateEvent(testEvent(begin)))
	require.NoError(t, store.AppendOrUpdateEvent(testEvent(begin.Add(time.Minute))))

	date := begin.Local().Format("2006-01-02")
	counts, err := store.HourlyCounts(conf.ClassBark, date)
	require.NoError(t, err)

	hour := begin.Local().Hour()
	for h := 0; h < 24; h++ {
		if h == hour {
			assert.Equal(t, 2, counts[h])
		} else {
			assert.Equal(t, 0, counts[h], "hour %d should be empty", h)
		}
	}
}

func TestListDaysAndCountForDay(t *testing.T) {
	store := newTestStore(t)

	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	day2 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	require.NoError(t, store.AppendOrUpdateEvent(testEvent(day1)))
	require.NoError(t, store.AppendOrUpdateEvent(testEvent(day2)))
	require.NoError(t, store.AppendOrUpdateEvent(testEvent(day2.Add(time.Hour))))

	days, err := store.ListDays(conf.ClassBark)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-02", "2025-06-01"}, days)

	count, err := store.CountForDay(conf.ClassBark, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
