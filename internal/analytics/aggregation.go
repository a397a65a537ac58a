// Package analytics aggregates stored events into daily summaries,
// distributions and totals for reporting.
package analytics

import (
	"time"

	"github.com/barkwatch/barkwatch-go/internal/datastore"
)

// DailySummary aggregates one class's events on a single day.
type DailySummary struct {
	Class string
	Date  string
	Count int

	TotalDuration   time.Duration
	AvgDuration     time.Duration
	LongestDuration time.Duration

	MeanPeakConfidence float64
	MaxPeakConfidence  float64

	// Hourly holds per-hour event counts, index 0 through 23.
	Hourly [24]int

	// PeakHour is the hour with the most events, -1 when the day is empty.
	// Ties resolve to the earliest hour.
	PeakHour int

	// Density is each hour's share of the day's events, zero on empty days.
	Density [24]float64
}

// BuildDailySummary computes the summary for one day from its events. Hours
// with no events stay at zero so a day always spans all 24 slots.
func BuildDailySummary(class, date string, events []datastore.Event) DailySummary {
	summary := DailySummary{
		Class:    class,
		Date:     date,
		Count:    len(events),
		PeakHour: -1,
	}

	if len(events) == 0 {
		return summary
	}

	var peakSum float64
	for i := range events {
		event := &events[i]

		duration := event.Duration()
		summary.TotalDuration += duration
		if duration > summary.LongestDuration {
			summary.LongestDuration = duration
		}

		peakSum += event.PeakConfidence
		if event.PeakConfidence > summary.MaxPeakConfidence {
			summary.MaxPeakConfidence = event.PeakConfidence
		}

		if event.Hour >= 0 && event.Hour < 24 {
			summary.Hourly[event.Hour]++
		}
	}

	summary.AvgDuration = summary.TotalDuration / time.Duration(len(events))
	summary.MeanPeakConfidence = peakSum / float64(len(events))

	for hour, count := range summary.Hourly {
		if summary.PeakHour == -1 || count > summary.Hourly[summary.PeakHour] {
			summary.PeakHour = hour
		}
		summary.Density[hour] = float64(count) / float64(len(events))
	}

	return summary
}

// DurationBin is one bucket of the event duration distribution.
type DurationBin struct {
	Label        string
	UpperSeconds float64 // exclusive upper edge, 0 for the open-ended bin
	Count        int
}

// durationBinEdges are the exclusive upper edges of the distribution, in
// seconds arranged from shortest to longest.
var durationBinEdges = []struct {
	label string
	upper float64
}{
	{"<1s", 1},
	{"1-2s", 2},
	{"2-5s", 5},
	{"5-10s", 10},
	{"10-30s", 30},
	{"30-60s", 60},
	{"1-5m", 300},
}

// DurationDistribution buckets events by duration. Every bin is present in
// the result even when empty.
func DurationDistribution(events []datastore.Event) []DurationBin {
	bins := make([]DurationBin, 0, len(durationBinEdges)+1)
	for _, edge := range durationBinEdges {
		bins = append(bins, DurationBin{Label: edge.label, UpperSeconds: edge.upper})
	}
	bins = append(bins, DurationBin{Label: ">5m"})

	for i := range events {
		seconds := events[i].Duration().Seconds()
		placed := false
		for b := range durationBinEdges {
			if seconds < durationBinEdges[b].upper {
				bins[b].Count++
				placed = true
				break
			}
		}
		if !placed {
			bins[len(bins)-1].Count++
		}
	}

	return bins
}

// DailyTotal is one day's event count within a contiguous range.
type DailyTotal struct {
	Date  string
	Count int
}

// FillDailyTotals expands sparse per-day counts into a contiguous series
// from startDate to endDate inclusive, zero-filling days with no events.
// Dates are ISO "2006-01-02" strings.
func FillDailyTotals(counts []datastore.DailyCount, startDate, endDate string) ([]DailyTotal, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	var totals []DailyTotal
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		totals = append(totals, DailyTotal{Date: date, Count: byDate[date]})
	}
	return totals, nil
}
