package myaudio

import (
	"os"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AudioInfo describes a decoded audio file.
type AudioInfo struct {
	SampleRate   int
	TotalSamples int
	NumChannels  int
	BitDepth     int
}

func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}
}

// ReadWAV decodes a WAV file into mono float32 samples on the classifier's
// sample rate. Stereo input is downmixed by averaging the channels. Files
// with a different sample rate are rejected, resampling is out of scope.
func ReadWAV(path string) ([]float32, AudioInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, AudioInfo{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, AudioInfo{}, errors.Newf("input is not a valid WAV audio file").
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	info := AudioInfo{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    int(decoder.BitDepth),
	}

	if info.SampleRate != conf.SampleRate {
		return nil, AudioInfo{}, errors.Newf("sample rate %d not supported, expected %d", info.SampleRate, conf.SampleRate).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if info.NumChannels != 1 && info.NumChannels != 2 {
		return nil, AudioInfo{}, errors.Newf("unsupported number of channels: %d", info.NumChannels).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}

	divisor, err := getAudioDivisor(info.BitDepth)
	if err != nil {
		return nil, AudioInfo{}, err
	}

	var samples []float32
	buf := &audio.IntBuffer{
		Data:   make([]int, conf.WindowSamples*info.NumChannels),
		Format: &audio.Format{SampleRate: info.SampleRate, NumChannels: info.NumChannels},
	}

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, AudioInfo{}, errors.New(err).
				Component("myaudio").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
		if n == 0 {
			break
		}

		frames := n / info.NumChannels
		for f := 0; f < frames; f++ {
			if info.NumChannels == 1 {
				samples = append(samples, float32(buf.Data[f])/divisor)
				continue
			}
			left := float32(buf.Data[f*2]) / divisor
			right := float32(buf.Data[f*2+1]) / divisor
			samples = append(samples, (left+right)/2)
		}
	}

	info.TotalSamples = len(samples)
	return samples, info, nil
}
