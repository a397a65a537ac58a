// internal/datastore/analytics.go
package datastore

import (
	"fmt"
)

// HourlyCounts returns a class's event counts for one day bucketed into 24
// hour-of-day slots. Hours without events stay zero.
func (ds *DataStore) HourlyCounts(class, date string) ([24]int, error) {
	var hourlyCounts [24]int

	rows, err := ds.DB.Model(&Event{}).
		Select("hour, COUNT(*) as count").
		Where("class = ? AND date = ?", class, date).
		Group("hour").
		Rows()
	if err != nil {
		return hourlyCounts, fmt.Errorf("getting hourly counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return hourlyCounts, fmt.Errorf("scanning hourly counts: %w", err)
		}
		if hour >= 0 && hour < 24 {
			hourlyCounts[hour] = count
		}
	}

	return hourlyCounts, rows.Err()
}

// DailyCounts returns a class's event counts grouped by day for an inclusive
// date range. Days without events are absent here, the aggregation engine
// zero-fills them.
func (ds *DataStore) DailyCounts(class, startDate, endDate string) ([]DailyCount, error) {
	var counts []DailyCount

	query := ds.DB.Model(&Event{}).
		Select("date, COUNT(*) as count").
		Where("class = ?", class).
		Group("date").
		Order("date")

	switch {
	case startDate != "" && endDate != "":
		query = query.Where("date >= ? AND date <= ?", startDate, endDate)
	case startDate != "":
		query = query.Where("date >= ?", startDate)
	case endDate != "":
		query = query.Where("date <= ?", endDate)
	}

	if err := query.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("getting daily counts: %w", err)
	}

	return counts, nil
}
