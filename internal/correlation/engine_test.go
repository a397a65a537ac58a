package correlation

import (
	"testing"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeStore serves canned events through the QueryEvents contract, which
// returns open events as well as finalized ones.
type rangeStore struct {
	datastore.Interface
	events []datastore.Event
}

func (s *rangeStore) QueryEvents(class string, start, end time.Time) ([]datastore.Event, error) {
	var out []datastore.Event
	for _, event := range s.events {
		if event.Class == class && !event.BeginTime.Before(start) && event.BeginTime.Before(end) {
			out = append(out, event)
		}
	}
	return out, nil
}

func finalized(event datastore.Event) datastore.Event {
	event.Finalized = true
	return event
}

func TestAnalyzeRangeExcludesOpenEvents(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Correlation.WindowMinutes = 30

	store := &rangeStore{events: []datastore.Event{
		finalized(bark(1, 5*time.Minute)),
		bark(2, 10*time.Minute), // still open, end time not settled
		finalized(thunder(3, 0)),
		thunder(4, 2*time.Minute), // still open
	}}

	report, err := AnalyzeRange(store, settings, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalBarks)
	assert.Equal(t, 1, report.TotalThunders)
	require.Len(t, report.Thunders, 1)
	assert.Equal(t, uint(3), report.Thunders[0].Thunder.ID)
	require.Len(t, report.Thunders[0].Matches, 1)
	assert.Equal(t, uint(1), report.Thunders[0].Matches[0].Bark.ID)
	assert.Len(t, report.Timeline, 2)
}
