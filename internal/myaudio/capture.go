package myaudio

import (
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/gen2brain/malgo"
)

// SourceMalgo is the ring buffer key used by the local sound card capture.
const SourceMalgo = "malgo"

type captureSource struct {
	Name    string
	Pointer unsafe.Pointer
}

// ListCaptureDevices returns the names of all capture devices visible to the
// audio backend.
func ListCaptureDevices() ([]string, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioSource).
			Build()
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioSource).
			Build()
	}

	names := make([]string, 0, len(infos))
	for i := range infos {
		names = append(names, infos[i].Name())
	}
	return names, nil
}

// selectCaptureSource picks the device whose name contains the configured
// source string, or the backend default when the setting is empty.
func selectCaptureSource(settings *conf.Settings, infos []malgo.DeviceInfo) (captureSource, error) {
	want := strings.TrimSpace(settings.Realtime.Audio.Source)
	if want == "" || strings.EqualFold(want, "default") {
		return captureSource{Name: "default"}, nil
	}

	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), strings.ToLower(want)) {
			return captureSource{Name: infos[i].Name(), Pointer: infos[i].ID.Pointer()}, nil
		}
	}

	return captureSource{}, errors.Newf("no capture device matching %q", want).
		Component("myaudio").
		Category(errors.CategoryAudioSource).
		Context("configured_source", want).
		Build()
}

// CaptureAudio opens the configured capture device and streams S16 mono PCM
// into the analysis ring buffer until quitChan closes. A device stop that is
// not a shutdown first retries the device, then signals restartChan for a
// full capture restart.
func CaptureAudio(settings *conf.Settings, wg *sync.WaitGroup, quitChan, restartChan chan struct{}) {
	defer wg.Done()

	var device *malgo.Device

	// pick the native backend per platform, auto-select elsewhere
	var backends []malgo.Backend
	switch runtime.GOOS {
	case "linux":
		backends = []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		backends = []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		backends = []malgo.Backend{malgo.BackendCoreaudio}
	}

	malgoCtx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(message string) {
		if settings.Debug {
			getLogger().Debug("malgo", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		getLogger().Error("audio context init failed", "error", err)
		return
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		getLogger().Error("failed to enumerate capture devices", "error", err)
		return
	}

	source, err := selectCaptureSource(settings, infos)
	if err != nil {
		getLogger().Error("capture source selection failed", "error", err)
		return
	}
	if source.Pointer != nil {
		deviceConfig.Capture.DeviceID = source.Pointer
	}

	onReceiveFrames := func(pOutput, pSamples []byte, framecount uint32) {
		WriteToAnalysisBuffer(SourceMalgo, pSamples)
	}

	// called when the device stops, either normally or unexpectedly
	onStopDevice := func() {
		go func() {
			select {
			case <-quitChan:
				return
			case <-time.After(100 * time.Millisecond):
				// brief pause avoids rapid restart loops
				if err := device.Start(); err != nil {
					getLogger().Warn("device restart failed, requesting capture restart", "error", err)
					time.Sleep(1 * time.Second)
					restartChan <- struct{}{}
				}
			}
		}()
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: onReceiveFrames,
		Stop: onStopDevice,
	}

	device, err = malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		getLogger().Error("capture device init failed", "error", err)
		return
	}

	if err := device.Start(); err != nil {
		getLogger().Error("capture device start failed", "error", err)
		return
	}
	defer device.Stop() //nolint:errcheck

	getLogger().Info("listening on capture source", "source", source.Name)

	for {
		select {
		case <-quitChan:
			return
		case <-restartChan:
			return
		default:
			time.Sleep(100 * time.Millisecond)
		}
	}
}
