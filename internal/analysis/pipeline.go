// Package analysis wires capture, classification and detection together for
// the realtime and file modes.
package analysis

import (
	"time"

	"github.com/barkwatch/barkwatch-go/internal/detection"
	"github.com/barkwatch/barkwatch-go/internal/telemetry"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
)

// Pipeline pushes classified windows into the detection registry. One
// instance serves exactly one audio stream.
type Pipeline struct {
	classifier yamnet.Classifier
	registry   *detection.Registry
	metrics    *telemetry.Metrics
}

// NewPipeline builds a pipeline. metrics may be nil.
func NewPipeline(classifier yamnet.Classifier, registry *detection.Registry, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		registry:   registry,
		metrics:    metrics,
	}
}

// ProcessWindow classifies one window and feeds the scores to the
// per-class detectors. Inference failures are counted and the window is
// skipped, the stream continues.
func (p *Pipeline) ProcessWindow(samples []float32, begin time.Time) {
	start := time.Now()
	scores, err := p.classifier.Predict(samples)
	if err != nil {
		if p.metrics != nil {
			p.metrics.InferenceErrors.Inc()
		}
		getLogger().Error("classifier inference failed", "error", err)
		return
	}

	if p.metrics != nil {
		p.metrics.WindowsProcessed.Inc()
		p.metrics.InferenceSeconds.Observe(time.Since(start).Seconds())
		for class, confidence := range scores {
			p.metrics.LatestConfidence.WithLabelValues(class).Set(confidence)
		}
	}

	p.registry.ProcessScores(begin, scores)
}

// Close finalizes all detectors.
func (p *Pipeline) Close() {
	p.registry.Close()
}
