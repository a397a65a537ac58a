// buffers.go: ring buffer between the capture callback and the windower,
// plus the monitor goroutine that slices the stream into overlapping
// analysis windows.
package myaudio

import (
	"sync"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/smallnest/ringbuffer"
)

const (
	pollInterval             = time.Millisecond * 10
	maxWriteRetries          = 3
	writeRetryDelay          = time.Millisecond * 10
	warningCapacityThreshold = 0.9 // 90% full
)

// WindowFunc receives one analysis window of float32 samples together with
// the window's begin timestamp on the stream clock.
type WindowFunc func(samples []float32, begin time.Time)

var (
	ringBuffers    map[string]*ringbuffer.RingBuffer // per-source PCM ring buffers
	prevData       map[string][]byte                 // per-source overlap carried between reads
	nextBegin      map[string]time.Time              // per-source begin time of the next window
	rbMutex        sync.RWMutex
	warningCounter map[string]int
)

func init() {
	warningCounter = make(map[string]int)
}

// InitRingBuffers initializes the ring buffers for each audio source. The
// anchor is the stream-clock timestamp of the first sample; subsequent
// windows advance by the hop.
func InitRingBuffers(capacity int, sources []string, anchor time.Time) {
	rbMutex.Lock()
	defer rbMutex.Unlock()

	ringBuffers = make(map[string]*ringbuffer.RingBuffer)
	prevData = make(map[string][]byte)
	nextBegin = make(map[string]time.Time)
	for _, source := range sources {
		ringBuffers[source] = ringbuffer.New(capacity)
		prevData[source] = nil
		nextBegin[source] = anchor
	}
}

// WriteToAnalysisBuffer writes captured PCM data into the ring buffer for a
// given source. A persistently full buffer drops data rather than blocking
// the capture callback.
func WriteToAnalysisBuffer(source string, data []byte) {
	rbMutex.RLock()
	rb, exists := ringBuffers[source]
	rbMutex.RUnlock()

	if !exists {
		getLogger().Error("no ring buffer for source", "source", source)
		return
	}

	capacityUsed := float64(rb.Length()) / float64(rb.Capacity())
	if capacityUsed > warningCapacityThreshold {
		warningCounter[source]++
		if warningCounter[source]%32 == 1 {
			getLogger().Warn("analysis buffer nearly full",
				"source", source,
				"used_pct", capacityUsed*100)
		}
	}

	for retry := 0; retry < maxWriteRetries; retry++ {
		n, err := rb.Write(data)
		if err == nil {
			if n < len(data) {
				getLogger().Warn("short write to analysis buffer",
					"source", source, "wrote", n, "want", len(data))
			}
			return
		}
		if retry < maxWriteRetries-1 {
			time.Sleep(writeRetryDelay)
		}
	}

	getLogger().Error("dropping PCM data after failed buffer writes",
		"source", source, "bytes", len(data))
}

// readFromBuffer reads one hop worth of new data and joins it with the
// retained overlap so the caller sees a full window. Returns nil until a
// complete window is available.
func readFromBuffer(source string) []byte {
	rbMutex.Lock()
	defer rbMutex.Unlock()

	rb, exists := ringBuffers[source]
	if !exists {
		getLogger().Error("no ring buffer for source", "source", source)
		return nil
	}

	if rb.Length() < conf.HopBytes {
		return nil
	}

	data := make([]byte, conf.HopBytes)
	if _, err := rb.Read(data); err != nil {
		getLogger().Error("failed to read from analysis buffer", "source", source, "error", err)
		return nil
	}

	fullData := append(prevData[source], data...)
	if len(fullData) < conf.WindowBytes {
		// still priming: the first window needs two hops of data
		prevData[source] = fullData
		return nil
	}

	// keep the tail that overlaps into the next window
	prevData[source] = fullData[conf.HopBytes:]
	return fullData[:conf.WindowBytes]
}

// WindowMonitor polls the ring buffer for a source and invokes process for
// every complete analysis window. A trailing partial window left in the
// buffer when quitChan closes is discarded.
func WindowMonitor(wg *sync.WaitGroup, quitChan chan struct{}, source string, process WindowFunc) {
	defer wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quitChan:
			return

		case <-ticker.C:
			for {
				data := readFromBuffer(source)
				if data == nil {
					break
				}
				emitWindow(source, data, process)
			}
		}
	}
}

func emitWindow(source string, data []byte, process WindowFunc) {
	samples, err := ConvertPCM16ToFloat32(data)
	if err != nil {
		getLogger().Error("failed to convert window", "source", source, "error", err)
		return
	}

	rbMutex.Lock()
	begin := nextBegin[source]
	nextBegin[source] = begin.Add(time.Duration(conf.HopSeconds * float64(time.Second)))
	rbMutex.Unlock()

	process(samples, begin)
}
