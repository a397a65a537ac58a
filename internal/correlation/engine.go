package correlation

import (
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
)

// AnalyzeRange loads both classes' finalized events with begin times in
// [start, end) and correlates them using the configured window. An event
// still open in a live stream is excluded, its end time is not settled yet.
func AnalyzeRange(store datastore.Interface, settings *conf.Settings, start, end time.Time) (*Report, error) {
	barks, err := store.QueryEvents(conf.ClassBark, start, end)
	if err != nil {
		return nil, errors.New(err).
			Component("correlation").
			Category(errors.CategoryDatabase).
			Context("class", conf.ClassBark).
			Build()
	}

	thunders, err := store.QueryEvents(conf.ClassThunder, start, end)
	if err != nil {
		return nil, errors.New(err).
			Component("correlation").
			Category(errors.CategoryDatabase).
			Context("class", conf.ClassThunder).
			Build()
	}

	window := time.Duration(settings.Correlation.WindowMinutes) * time.Minute
	return Analyze(finalizedOnly(barks), finalizedOnly(thunders), window), nil
}

func finalizedOnly(events []datastore.Event) []datastore.Event {
	kept := make([]datastore.Event, 0, len(events))
	for _, event := range events {
		if event.Finalized {
			kept = append(kept, event)
		}
	}
	return kept
}
