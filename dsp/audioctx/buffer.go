package audioctx

import (
	"fmt"
	"math"
)

// Buffer is decoded, non-interleaved PCM held in memory.
type Buffer struct {
	sampleRate float64
	channels   [][]float64
}

// NewBuffer validates and wraps per-channel sample slices. All channels must
// have the same non-zero length.
func NewBuffer(sampleRate float64, channels [][]float64) (*Buffer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, ErrEmptyBuffer
	}

	for i, ch := range channels {
		if len(ch) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrInvalidParameter, i, len(ch), len(channels[0]))
		}
	}

	return &Buffer{sampleRate: sampleRate, channels: channels}, nil
}

func (b *Buffer) SampleRate() float64   { return b.sampleRate }
func (b *Buffer) NumberOfChannels() int { return len(b.channels) }
func (b *Buffer) Length() int           { return len(b.channels[0]) }

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Length()) / b.sampleRate
}

// Channel returns the samples of channel i. The slice is shared.
func (b *Buffer) Channel(i int) []float64 {
	return b.channels[i]
}

// Mono returns the average of all channels as a new slice.
func (b *Buffer) Mono() []float64 {
	out := make([]float64, b.Length())
	copy(out, b.channels[0])

	if len(b.channels) == 1 {
		return out
	}

	for _, ch := range b.channels[1:] {
		for i, v := range ch {
			out[i] += v
		}
	}

	scale := 1 / float64(len(b.channels))
	for i := range out {
		out[i] *= scale
	}

	return out
}
