package analytics

import (
	"fmt"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/patrickmn/go-cache"
)

// Service answers aggregation queries over the event store. Summaries for
// past days never change once the day is over, so they are cached; the
// current day is cached briefly to keep repeated queries cheap.
type Service struct {
	store        datastore.Interface
	summaryCache *cache.Cache
}

// NewService creates an analytics service over the given store.
func NewService(store datastore.Interface) *Service {
	return &Service{
		store:        store,
		summaryCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func summaryCacheKey(class, date string) string {
	return fmt.Sprintf("summary:%s:%s", class, date)
}

// DailySummary returns the aggregated summary for one class and day.
func (s *Service) DailySummary(class, date string) (DailySummary, error) {
	key := summaryCacheKey(class, date)
	if cached, found := s.summaryCache.Get(key); found {
		return cached.(DailySummary), nil
	}

	events, err := s.store.EventsForDay(class, date)
	if err != nil {
		return DailySummary{}, errors.New(err).
			Component("analytics").
			Category(errors.CategoryDatabase).
			Context("class", class).
			Context("date", date).
			Build()
	}

	summary := BuildDailySummary(class, date, events)

	expiry := cache.DefaultExpiration
	if date != time.Now().Format("2006-01-02") {
		// completed days are immutable
		expiry = cache.NoExpiration
	}
	s.summaryCache.Set(key, summary, expiry)

	return summary, nil
}

// DurationDistribution buckets a class's events between start and end.
func (s *Service) DurationDistribution(class string, start, end time.Time) ([]DurationBin, error) {
	events, err := s.store.QueryEvents(class, start, end)
	if err != nil {
		return nil, errors.New(err).
			Component("analytics").
			Category(errors.CategoryDatabase).
			Context("class", class).
			Build()
	}
	return DurationDistribution(events), nil
}

// DailyTotals returns a contiguous zero-filled series of per-day counts
// between startDate and endDate inclusive.
func (s *Service) DailyTotals(class, startDate, endDate string) ([]DailyTotal, error) {
	counts, err := s.store.DailyCounts(class, startDate, endDate)
	if err != nil {
		return nil, errors.New(err).
			Component("analytics").
			Category(errors.CategoryDatabase).
			Context("class", class).
			Build()
	}
	return FillDailyTotals(counts, startDate, endDate)
}

// InvalidateDay evicts a cached summary, used when events are deleted.
func (s *Service) InvalidateDay(class, date string) {
	s.summaryCache.Delete(summaryCacheKey(class, date))
}
