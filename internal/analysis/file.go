package analysis

import (
	"fmt"
	"os"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/detection"
	"github.com/barkwatch/barkwatch-go/internal/myaudio"
	"github.com/barkwatch/barkwatch-go/internal/observation"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
)

// FileAnalysis runs the whole pipeline over one WAV file. Window timestamps
// are synthesized from the file's modification time so events land on a
// plausible wall clock position; the hop spacing between windows matches the
// live stream exactly.
func FileAnalysis(settings *conf.Settings, path string) error {
	classifier, err := yamnet.New(settings, yamnet.TrackedClasses())
	if err != nil {
		return err
	}
	defer classifier.Close()

	samples, info, err := myaudio.ReadWAV(path)
	if err != nil {
		return err
	}

	fileDuration := time.Duration(float64(info.TotalSamples) / float64(conf.SampleRate) * float64(time.Second))
	anchor := time.Now().Add(-fileDuration)
	if stat, err := os.Stat(path); err == nil {
		anchor = stat.ModTime().Add(-fileDuration)
	}

	if settings.Debug {
		fmt.Printf("Analyzing %s: %d samples, %v of audio\n", path, info.TotalSamples, fileDuration)
	}

	dataStore := datastore.New(settings)
	if err := dataStore.Open(); err != nil {
		return err
	}
	defer closeDataStore(dataStore)

	var finalized []datastore.Event
	onEvent := func(event *datastore.Event) {
		finalized = append(finalized, *event)
	}

	registry := detection.NewRegistry(settings, dataStore, onEvent, getLogger())
	pipeline := NewPipeline(classifier, registry, nil)

	hop := time.Duration(conf.HopSeconds * float64(time.Second))
	for offset := 0; offset+conf.WindowSamples <= len(samples); offset += conf.HopSamples {
		begin := anchor.Add(time.Duration(offset/conf.HopSamples) * hop)
		pipeline.ProcessWindow(samples[offset:offset+conf.WindowSamples], begin)
	}

	// a trailing partial window is discarded, same as the live stream
	pipeline.Close()

	fmt.Printf("Analysis of %s complete, %d event(s) detected\n", path, len(finalized))
	if len(finalized) > 0 {
		if err := observation.WriteTable(os.Stdout, finalized); err != nil {
			return err
		}
	}
	return nil
}
