// Package correlation relates bark events to thunder events in time to
// answer whether barking clusters around thunder.
package correlation

import (
	"sort"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
)

// Relation of a matched bark to its thunder event.
const (
	RelationBefore = "before" // bark began before the thunder
	RelationAfter  = "after"  // bark began at or after the thunder
)

// Match is a bark that falls within the correlation window of a thunder.
type Match struct {
	Bark datastore.Event

	// Delta is the bark begin time minus the thunder begin time. Negative
	// means the bark preceded the thunder.
	Delta    time.Duration
	Relation string
}

// ThunderCorrelation groups all barks matched to one thunder event.
type ThunderCorrelation struct {
	Thunder datastore.Event
	Matches []Match
}

// TimelineEntry is one event on the combined chronological timeline.
type TimelineEntry struct {
	Time    time.Time
	Class   string
	EventID uint
	Matched bool
}

// Report is the result of a correlation analysis.
type Report struct {
	Window time.Duration

	TotalBarks    int
	TotalThunders int

	// MatchedBarks and MatchedThunders are counts of distinct events with
	// at least one counterpart inside the window.
	MatchedBarks    int
	MatchedThunders int

	// BarksBefore and BarksAfter count match pairs, a bark matched to two
	// thunders contributes twice.
	BarksBefore int
	BarksAfter  int

	// MatchedBarkRatio is MatchedBarks over TotalBarks, zero when there
	// are no barks.
	MatchedBarkRatio float64

	// AvgBarksPerThunder is match pairs over TotalThunders, zero when
	// there are no thunders.
	AvgBarksPerThunder float64

	Thunders []ThunderCorrelation
	Timeline []TimelineEntry
}

// Analyze matches barks to thunders whose begin times lie within the window
// of each other, boundary inclusive. Matching is many-to-many: every
// qualifying pair is reported.
func Analyze(barks, thunders []datastore.Event, window time.Duration) *Report {
	report := &Report{
		Window:        window,
		TotalBarks:    len(barks),
		TotalThunders: len(thunders),
	}

	matchedBarks := make(map[uint]bool)

	for i := range thunders {
		thunder := thunders[i]
		tc := ThunderCorrelation{Thunder: thunder}

		for j := range barks {
			bark := barks[j]
			delta := bark.BeginTime.Sub(thunder.BeginTime)
			if delta < -window || delta > window {
				continue
			}

			relation := RelationAfter
			if delta < 0 {
				relation = RelationBefore
				report.BarksBefore++
			} else {
				report.BarksAfter++
			}

			tc.Matches = append(tc.Matches, Match{
				Bark:     bark,
				Delta:    delta,
				Relation: relation,
			})
			matchedBarks[bark.ID] = true
		}

		if len(tc.Matches) > 0 {
			report.MatchedThunders++
		}
		report.Thunders = append(report.Thunders, tc)
	}

	report.MatchedBarks = len(matchedBarks)
	if report.TotalBarks > 0 {
		report.MatchedBarkRatio = float64(report.MatchedBarks) / float64(report.TotalBarks)
	}
	if report.TotalThunders > 0 {
		report.AvgBarksPerThunder = float64(report.BarksBefore+report.BarksAfter) / float64(report.TotalThunders)
	}

	report.Timeline = buildTimeline(barks, thunders, matchedBarks, report.Thunders)
	return report
}

// buildTimeline interleaves both classes chronologically and flags events
// that have at least one match.
func buildTimeline(barks, thunders []datastore.Event, matchedBarks map[uint]bool, correlations []ThunderCorrelation) []TimelineEntry {
	matchedThunders := make(map[uint]bool)
	for i := range correlations {
		if len(correlations[i].Matches) > 0 {
			matchedThunders[correlations[i].Thunder.ID] = true
		}
	}

	timeline := make([]TimelineEntry, 0, len(barks)+len(thunders))
	for i := range barks {
		timeline = append(timeline, TimelineEntry{
			Time:    barks[i].BeginTime,
			Class:   conf.ClassBark,
			EventID: barks[i].ID,
			Matched: matchedBarks[barks[i].ID],
		})
	}
	for i := range thunders {
		timeline = append(timeline, TimelineEntry{
			Time:    thunders[i].BeginTime,
			Class:   conf.ClassThunder,
			EventID: thunders[i].ID,
			Matched: matchedThunders[thunders[i].ID],
		})
	}

	sort.Slice(timeline, func(i, j int) bool {
		if timeline[i].Time.Equal(timeline[j].Time) {
			return timeline[i].Class < timeline[j].Class
		}
		return timeline[i].Time.Before(timeline[j].Time)
	})

	return timeline
}
