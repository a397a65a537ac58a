package myaudio

import (
	"encoding/binary"

	"github.com/barkwatch/barkwatch-go/internal/errors"
)

// ConvertPCM16ToFloat32 converts little-endian signed 16-bit PCM bytes to
// float32 samples in [-1, 1). The input length must be even.
func ConvertPCM16ToFloat32(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, errors.Newf("PCM data length %d is not a multiple of the sample size", len(data)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples, nil
}
