package media

import (
	"io"
	"sync"

	"github.com/google/uuid"
)

// OpaqueTrack is a non-audio track the audio chain never reads. It only carries
// identity, so video or data tracks pass through a chain untouched.
type OpaqueTrack struct {
	id    string
	kind  TrackKind
	label string
}

// NewOpaqueTrack returns a track of the given kind with a fresh id.
func NewOpaqueTrack(kind TrackKind, label string) *OpaqueTrack {
	return &OpaqueTrack{id: uuid.NewString(), kind: kind, label: label}
}

func (t *OpaqueTrack) ID() string      { return t.id }
func (t *OpaqueTrack) Kind() TrackKind { return t.kind }
func (t *OpaqueTrack) Label() string   { return t.label }

// SampleTrack is an in-memory audio track over interleaved samples.
type SampleTrack struct {
	id         string
	label      string
	sampleRate float64
	channels   int

	mu      sync.Mutex
	samples []float64
	pos     int
}

// NewSampleTrack wraps interleaved samples. channels < 1 is treated as mono.
func NewSampleTrack(label string, sampleRate float64, channels int, samples []float64) *SampleTrack {
	if channels < 1 {
		channels = 1
	}

	return &SampleTrack{
		id:         uuid.NewString(),
		label:      label,
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
	}
}

func (t *SampleTrack) ID() string          { return t.id }
func (t *SampleTrack) Kind() TrackKind     { return KindAudio }
func (t *SampleTrack) Label() string       { return t.label }
func (t *SampleTrack) SampleRate() float64 { return t.sampleRate }
func (t *SampleTrack) Channels() int       { return t.channels }

// Frames returns the total number of frames in the track.
func (t *SampleTrack) Frames() int {
	return len(t.samples) / t.channels
}

// ReadSamples copies the next whole frames into dst.
func (t *SampleTrack) ReadSamples(dst []float64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos >= len(t.samples) {
		return 0, io.EOF
	}

	n := len(dst) - len(dst)%t.channels
	n = copy(dst[:n], t.samples[t.pos:])
	t.pos += n

	return n, nil
}

// Rewind resets the read position to the first frame.
func (t *SampleTrack) Rewind() {
	t.mu.Lock()
	t.pos = 0
	t.mu.Unlock()
}

// FuncTrack is an audio track whose samples come from a read function. It is
// used for tracks materialized by a processing graph.
type FuncTrack struct {
	id         string
	label      string
	sampleRate float64
	channels   int
	read       func(dst []float64) (int, error)
}

// NewFuncTrack returns an audio track backed by read.
func NewFuncTrack(label string, sampleRate float64, channels int, read func(dst []float64) (int, error)) *FuncTrack {
	if channels < 1 {
		channels = 1
	}

	return &FuncTrack{
		id:         uuid.NewString(),
		label:      label,
		sampleRate: sampleRate,
		channels:   channels,
		read:       read,
	}
}

func (t *FuncTrack) ID() string          { return t.id }
func (t *FuncTrack) Kind() TrackKind     { return KindAudio }
func (t *FuncTrack) Label() string       { return t.label }
func (t *FuncTrack) SampleRate() float64 { return t.sampleRate }
func (t *FuncTrack) Channels() int       { return t.channels }

func (t *FuncTrack) ReadSamples(dst []float64) (int, error) {
	return t.read(dst)
}

// ReadAll drains an audio track into one interleaved slice.
func ReadAll(t AudioTrack) ([]float64, error) {
	var out []float64

	buf := make([]float64, 4096*t.Channels())

	for {
		n, err := t.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if err == io.EOF {
			return out, nil
		}

		if err != nil {
			return out, err
		}

		if n == 0 {
			return out, nil
		}
	}
}
