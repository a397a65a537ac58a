// Package observation renders stored events for the outside world: CSV for
// spreadsheets, JSON for tooling, a plain table for the terminal.
package observation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
)

var csvHeader = []string{
	"id", "class", "date", "hour",
	"begin_time", "end_time", "duration_seconds",
	"peak_confidence", "avg_confidence", "sample_count", "finalized",
}

// WriteCSV writes events as CSV with a header row. Timestamps use RFC 3339
// with nanoseconds so ReadCSV can reproduce them exactly.
func WriteCSV(w io.Writer, events []datastore.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return exportError(err, "csv")
	}

	for i := range events {
		event := &events[i]
		record := []string{
			strconv.FormatUint(uint64(event.ID), 10),
			event.Class,
			event.Date,
			strconv.Itoa(event.Hour),
			event.BeginTime.Format(time.RFC3339Nano),
			event.EndTime.Format(time.RFC3339Nano),
			strconv.FormatFloat(event.Duration().Seconds(), 'f', 2, 64),
			strconv.FormatFloat(event.PeakConfidence, 'f', 4, 64),
			strconv.FormatFloat(event.AvgConfidence, 'f', 4, 64),
			strconv.Itoa(event.SampleCount),
			strconv.FormatBool(event.Finalized),
		}
		if err := cw.Write(record); err != nil {
			return exportError(err, "csv")
		}
	}

	cw.Flush()
	return exportError(cw.Error(), "csv")
}

// ReadCSV parses events previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]datastore.Event, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, exportError(err, "csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	events := make([]datastore.Event, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, exportError(fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(row)), "csv")
		}

		event, err := parseCSVRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func parseCSVRow(row []string) (datastore.Event, error) {
	var event datastore.Event

	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return event, exportError(err, "csv")
	}
	event.ID = uint(id)
	event.Class = row[1]
	event.Date = row[2]
	if event.Hour, err = strconv.Atoi(row[3]); err != nil {
		return event, exportError(err, "csv")
	}
	if event.BeginTime, err = time.Parse(time.RFC3339Nano, row[4]); err != nil {
		return event, exportError(err, "csv")
	}
	if event.EndTime, err = time.Parse(time.RFC3339Nano, row[5]); err != nil {
		return event, exportError(err, "csv")
	}
	// row[6] is the derived duration, recomputed on demand
	if event.PeakConfidence, err = strconv.ParseFloat(row[7], 64); err != nil {
		return event, exportError(err, "csv")
	}
	if event.AvgConfidence, err = strconv.ParseFloat(row[8], 64); err != nil {
		return event, exportError(err, "csv")
	}
	if event.SampleCount, err = strconv.Atoi(row[9]); err != nil {
		return event, exportError(err, "csv")
	}
	if event.Finalized, err = strconv.ParseBool(row[10]); err != nil {
		return event, exportError(err, "csv")
	}
	return event, nil
}

// WriteJSON writes events as an indented JSON array.
func WriteJSON(w io.Writer, events []datastore.Event) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return exportError(enc.Encode(events), "json")
}

// WriteTable writes events as an aligned human-readable table.
func WriteTable(w io.Writer, events []datastore.Event) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLASS\tBEGIN\tDURATION\tPEAK\tAVG\tSAMPLES\tFINAL")

	for i := range events {
		event := &events[i]
		final := ""
		if event.Finalized {
			final = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2fs\t%.2f\t%.2f\t%d\t%s\n",
			event.ID,
			event.Class,
			event.BeginTime.Local().Format("2006-01-02 15:04:05"),
			event.Duration().Seconds(),
			event.PeakConfidence,
			event.AvgConfidence,
			event.SampleCount,
			final,
		)
	}

	return exportError(tw.Flush(), "table")
}

func exportError(err error, format string) error {
	if err == nil {
		return nil
	}
	return errors.New(err).
		Component("observation").
		Category(errors.CategoryFileIO).
		Context("format", format).
		Build()
}
