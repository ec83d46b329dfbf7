package testutil

import (
	"testing"

	"github.com/cwbudde/algo-streamfx/media"
)

// MonoStream wraps samples in a stream with one mono audio track.
func MonoStream(sampleRate float64, samples []float64) *media.Stream {
	return media.NewStream(media.NewSampleTrack("test", sampleRate, 1, samples))
}

// ReadTrack drains tr and fails t on any error other than io.EOF.
func ReadTrack(t *testing.T, tr media.AudioTrack) []float64 {
	t.Helper()

	out, err := media.ReadAll(tr)
	if err != nil {
		t.Fatalf("read track %q: %v", tr.ID(), err)
	}

	return out
}
