package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/datastore"
)

// EventMessage is the JSON payload published for a finalized event.
type EventMessage struct {
	Class          string    `json:"class"`
	BeginTime      time.Time `json:"begin_time"`
	EndTime        time.Time `json:"end_time"`
	DurationSec    float64   `json:"duration_seconds"`
	PeakConfidence float64   `json:"peak_confidence"`
	AvgConfidence  float64   `json:"avg_confidence"`
	SampleCount    int       `json:"sample_count"`
}

// PublishEvent serializes a finalized event and publishes it to the topic.
func PublishEvent(ctx context.Context, c Client, topic string, event *datastore.Event) error {
	message := EventMessage{
		Class:          event.Class,
		BeginTime:      event.BeginTime,
		EndTime:        event.EndTime,
		DurationSec:    event.Duration().Seconds(),
		PeakConfidence: event.PeakConfidence,
		AvgConfidence:  event.AvgConfidence,
		SampleCount:    event.SampleCount,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.Publish(ctx, topic, string(payload))
}
