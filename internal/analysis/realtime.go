package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/detection"
	"github.com/barkwatch/barkwatch-go/internal/logging"
	"github.com/barkwatch/barkwatch-go/internal/mqtt"
	"github.com/barkwatch/barkwatch-go/internal/myaudio"
	"github.com/barkwatch/barkwatch-go/internal/telemetry"
	"github.com/barkwatch/barkwatch-go/internal/yamnet"
)

// RealtimeAnalysis runs the live monitor: sound card capture through the
// classifier and detectors into the event store, until SIGINT.
func RealtimeAnalysis(settings *conf.Settings) error {
	classifier, err := yamnet.New(settings, yamnet.TrackedClasses())
	if err != nil {
		return err
	}
	defer classifier.Close()

	printSystemDetails()
	fmt.Printf("Starting monitor in realtime mode. Bark threshold: %v, thunder threshold: %v\n",
		settings.Detectors.Bark.Threshold,
		settings.Detectors.Thunder.Threshold)

	dataStore := datastore.New(settings)
	if err := dataStore.Open(); err != nil {
		return err
	}
	defer closeDataStore(dataStore)

	restartChan := make(chan struct{}, 3)
	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}
	if settings.Realtime.Telemetry.Enabled {
		endpoint, err := telemetry.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	var mqttClient mqtt.Client
	if settings.Realtime.MQTT.Enabled {
		mqttClient = mqtt.NewClient(settings)
		if err := mqttClient.Connect(context.Background()); err != nil {
			getLogger().Warn("MQTT connect failed, events will not be published", "error", err)
		}
		defer mqttClient.Disconnect()
	}

	var eventLog *slog.Logger
	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, "events", slog.LevelInfo)
		if err != nil {
			getLogger().Warn("event log disabled", "path", settings.Main.Log.Path, "error", err)
		} else {
			eventLog = fileLogger
			defer closeLog() //nolint:errcheck
		}
	}

	// Finalized events are handed off to a dedicated consumer so the DB
	// lookup and MQTT publish never stall the window-processing goroutine.
	eventChan := make(chan *datastore.Event, eventQueueSize)
	handler := finalizedEventHandler(settings, dataStore, mqttClient, metrics, eventLog)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range eventChan {
			handler(event)
		}
	}()

	registry := detection.NewRegistry(settings, dataStore, enqueueEvents(eventChan), getLogger())
	pipeline := NewPipeline(classifier, registry, metrics)

	sources := []string{myaudio.SourceMalgo}
	myaudio.InitRingBuffers(conf.WindowBytes*8, sources, time.Now())

	// The monitor gets its own quit channel so a capture restart can
	// quiesce it without tearing down the rest of the pipeline.
	monitorQuit := make(chan struct{})
	var monitorWG sync.WaitGroup
	monitorWG.Add(1)
	go myaudio.WindowMonitor(&monitorWG, monitorQuit, myaudio.SourceMalgo, pipeline.ProcessWindow)

	wg.Add(1)
	go myaudio.CaptureAudio(settings, &wg, quitChan, restartChan)

	monitorCtrlC(quitChan)

	for {
		select {
		case <-quitChan:
			// stop the windower first so no window is mid-flight, then
			// finalize any open event before the store closes
			close(monitorQuit)
			monitorWG.Wait()
			pipeline.Close()
			close(eventChan)
			wg.Wait()
			return nil

		case <-restartChan:
			getLogger().Info("restarting audio capture")
			// the stream is closing and reopening: quiesce the windower,
			// finalize in-flight events, then reset the stream clock.
			// Detector instances survive the restart.
			close(monitorQuit)
			monitorWG.Wait()
			pipeline.Close()

			myaudio.InitRingBuffers(conf.WindowBytes*8, sources, time.Now())
			monitorQuit = make(chan struct{})
			monitorWG.Add(1)
			go myaudio.WindowMonitor(&monitorWG, monitorQuit, myaudio.SourceMalgo, pipeline.ProcessWindow)
			wg.Add(1)
			go myaudio.CaptureAudio(settings, &wg, quitChan, restartChan)
		}
	}
}

const eventQueueSize = 64

// enqueueEvents returns an EventFunc that hands finalized events to the
// consumer queue without ever blocking the caller. A full queue drops the
// presentation actions for the event; the event itself is already persisted.
func enqueueEvents(events chan<- *datastore.Event) detection.EventFunc {
	return func(event *datastore.Event) {
		select {
		case events <- event:
		default:
			getLogger().Warn("event queue full, skipping publish for event",
				"class", event.Class, "begin", event.BeginTime)
		}
	}
}

// finalizedEventHandler logs, publishes and counts finalized events.
func finalizedEventHandler(settings *conf.Settings, store datastore.Interface, mqttClient mqtt.Client, metrics *telemetry.Metrics, eventLog *slog.Logger) detection.EventFunc {
	return func(event *datastore.Event) {
		metrics.EventsConfirmed.WithLabelValues(event.Class).Inc()

		if eventLog != nil {
			eventLog.Info("event",
				"class", event.Class,
				"begin", event.BeginTime,
				"end", event.EndTime,
				"duration_seconds", event.Duration().Seconds(),
				"peak_confidence", event.PeakConfidence,
				"avg_confidence", event.AvgConfidence,
				"samples", event.SampleCount)
		}

		if count, err := store.CountForDay(event.Class, event.Date); err == nil {
			metrics.TodayCount.WithLabelValues(event.Class).Set(float64(count))
		}

		if mqttClient != nil && mqttClient.IsConnected() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := mqtt.PublishEvent(ctx, mqttClient, settings.Realtime.MQTT.Topic, event); err != nil {
				getLogger().Warn("failed to publish event", "class", event.Class, "error", err)
			}
		}
	}
}

func printSystemDetails() {
	info, err := host.Info()
	if err != nil {
		getLogger().Warn("failed to retrieve host info", "error", err)
		return
	}
	fmt.Printf("System details: %s %s %s\n", info.OS, info.Platform, info.PlatformVersion)
}

// monitorCtrlC listens for SIGINT and triggers application shutdown.
func monitorCtrlC(quitChan chan struct{}) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT)

		<-sigChan

		fmt.Println("\nReceived Ctrl+C, shutting down")
		close(quitChan)
	}()
}

func closeDataStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		getLogger().Error("failed to close database", "error", err)
	}
}
