package observation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []datastore.Event {
	begin := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	return []datastore.Event{
		{
			ID:             1,
			Class:          conf.ClassBark,
			Date:           "2025-06-01",
			Hour:           14,
			BeginTime:      begin,
			EndTime:        begin.Add(3 * time.Second),
			PeakConfidence: 0.91,
			AvgConfidence:  0.78,
			SampleCount:    5,
			Finalized:      true,
		},
		{
			ID:             2,
			Class:          conf.ClassThunder,
			Date:           "2025-06-01",
			Hour:           14,
			BeginTime:      begin.Add(10 * time.Minute),
			EndTime:        begin.Add(10*time.Minute + 960*time.Millisecond),
			PeakConfidence: 0.66,
			AvgConfidence:  0.61,
			SampleCount:    2,
			Finalized:      false,
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	events := sampleEvents()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, events))

	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	for i := range events {
		assert.Equal(t, events[i].ID, parsed[i].ID)
		assert.Equal(t, events[i].Class, parsed[i].Class)
		assert.True(t, events[i].BeginTime.Equal(parsed[i].BeginTime))
		assert.True(t, events[i].EndTime.Equal(parsed[i].EndTime))
		assert.Equal(t, events[i].SampleCount, parsed[i].SampleCount)
		assert.Equal(t, events[i].Finalized, parsed[i].Finalized)
	}
}

func TestReadCSVRejectsShortRows(t *testing.T) {
	t.Parallel()

	input := "id,class\n1,bark\n"
	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleEvents()))

	var decoded []datastore.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, conf.ClassThunder, decoded[1].Class)
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleEvents()))

	out := buf.String()
	assert.Contains(t, out, "CLASS")
	assert.Contains(t, out, conf.ClassBark)
	assert.Contains(t, out, "yes")
}
