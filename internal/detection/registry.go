package detection

import (
	"log/slog"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
)

// Registry owns one detector per enabled class and fans classification
// scores out to them.
type Registry struct {
	detectors map[string]*Detector
	logger    *slog.Logger
}

// NewRegistry builds detectors for every enabled class in settings.
// Disabled classes get no detector, their scores are ignored.
func NewRegistry(settings *conf.Settings, store datastore.Interface, onEvent EventFunc, logger *slog.Logger) *Registry {
	r := &Registry{
		detectors: make(map[string]*Detector),
		logger:    logger,
	}
	for class, cfg := range settings.ClassConfigs() {
		if !cfg.Enabled {
			logger.Debug("class disabled, skipping detector", "class", class)
			continue
		}
		r.detectors[class] = NewDetector(class, cfg, store, onEvent, logger)
	}
	return r
}

// ProcessScores dispatches one window's scores to all detectors. The
// timestamp is the window begin time; each detector sees at most one
// sample per window.
func (r *Registry) ProcessScores(timestamp time.Time, scores yamnet.Scores) {
	for class, d := range r.detectors {
		confidence, ok := scores[class]
		if !ok {
			continue
		}
		if err := d.Process(Sample{Timestamp: timestamp, Confidence: confidence}); err != nil {
			// out-of-order samples are already logged by the detector
			continue
		}
	}
}

// Detector returns the detector for class, or nil when the class is
// disabled or unknown.
func (r *Registry) Detector(class string) *Detector {
	return r.detectors[class]
}

// Classes returns the ids of all classes with an active detector.
func (r *Registry) Classes() []string {
	classes := make([]string, 0, len(r.detectors))
	for class := range r.detectors {
		classes = append(classes, class)
	}
	return classes
}

// Close closes every detector, finalizing pending events.
func (r *Registry) Close() {
	for _, d := range r.detectors {
		d.Close()
	}
}
