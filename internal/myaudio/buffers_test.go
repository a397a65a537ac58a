package myaudio

import (
	"bytes"
	"testing"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPCM16ToFloat32(t *testing.T) {
	// 0, max positive, min negative
	data := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80}
	samples, err := ConvertPCM16ToFloat32(data)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
	assert.InDelta(t, 32767.0/32768.0, samples[1], 1e-6)
	assert.InDelta(t, -1.0, samples[2], 1e-6)
}

func TestConvertPCM16ToFloat32RejectsOddLength(t *testing.T) {
	_, err := ConvertPCM16ToFloat32([]byte{0x01})
	require.Error(t, err)
}

// hopOf builds one hop of PCM where every sample has the given 16-bit value.
func hopOf(value byte) []byte {
	return bytes.Repeat([]byte{value, 0x00}, conf.HopSamples)
}

func TestWindowerOverlapKeepBack(t *testing.T) {
	source := "test"
	InitRingBuffers(conf.WindowBytes*4, []string{source}, time.Time{})

	WriteToAnalysisBuffer(source, hopOf(1))
	// first hop only primes the overlap
	assert.Nil(t, readFromBuffer(source))

	WriteToAnalysisBuffer(source, hopOf(2))
	WriteToAnalysisBuffer(source, hopOf(3))

	window := readFromBuffer(source)
	require.Len(t, window, conf.WindowBytes)
	assert.EqualValues(t, 1, window[0])
	assert.EqualValues(t, 2, window[conf.HopBytes])

	// the second hop is carried into the next window
	window = readFromBuffer(source)
	require.Len(t, window, conf.WindowBytes)
	assert.EqualValues(t, 2, window[0])
	assert.EqualValues(t, 3, window[conf.HopBytes])

	// no more complete windows
	assert.Nil(t, readFromBuffer(source))
}

func TestEmitWindowAdvancesStreamClock(t *testing.T) {
	source := "clock"
	anchor := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	InitRingBuffers(conf.WindowBytes*4, []string{source}, anchor)

	var begins []time.Time
	process := func(samples []float32, begin time.Time) {
		assert.Len(t, samples, conf.WindowSamples)
		begins = append(begins, begin)
	}

	emitWindow(source, make([]byte, conf.WindowBytes), process)
	emitWindow(source, make([]byte, conf.WindowBytes), process)

	require.Len(t, begins, 2)
	assert.Equal(t, anchor, begins[0])
	hop := time.Duration(conf.HopSeconds * float64(time.Second))
	assert.Equal(t, anchor.Add(hop), begins[1])
}
