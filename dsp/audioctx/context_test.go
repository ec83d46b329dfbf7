package audioctx

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-streamfx/internal/testutil"
	"github.com/cwbudde/algo-streamfx/media"
)

// renderThrough feeds input through nodes in series and returns the rendered
// destination output.
func renderThrough(t *testing.T, c *Context, input []float64, nodes ...Node) []float64 {
	t.Helper()

	src, err := c.NewSource(testutil.MonoStream(c.SampleRate(), input))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	dest := c.NewDestination()

	var prev Node = src
	for _, n := range append(nodes, dest) {
		if err := c.Connect(prev, n); err != nil {
			t.Fatalf("Connect %s -> %s: %v", prev.Type(), n.Type(), err)
		}

		prev = n
	}

	return testutil.ReadTrack(t, dest.Track())
}

func mustContext(t *testing.T, opts ...Option) *Context {
	t.Helper()

	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return c
}

func TestNewDefaultsAndValidation(t *testing.T) {
	c := mustContext(t)
	if c.SampleRate() != DefaultSampleRate || c.BlockSize() != DefaultBlockSize {
		t.Fatalf("defaults = (%v, %d), want (%v, %d)",
			c.SampleRate(), c.BlockSize(), DefaultSampleRate, DefaultBlockSize)
	}

	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"zero rate", []Option{WithSampleRate(0)}, ErrInvalidSampleRate},
		{"negative rate", []Option{WithSampleRate(-44100)}, ErrInvalidSampleRate},
		{"block not power of two", []Option{WithBlockSize(100)}, ErrInvalidBlockSize},
		{"block too small", []Option{WithBlockSize(8)}, ErrInvalidBlockSize},
		{"block too large", []Option{WithBlockSize(32768)}, ErrInvalidBlockSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.opts...); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestConnectRules(t *testing.T) {
	c := mustContext(t)
	other := mustContext(t)

	src, err := c.NewSource(testutil.MonoStream(c.SampleRate(), testutil.DC(1, 10)))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	a, b := c.NewGain(), c.NewGain()
	dest := c.NewDestination()
	foreign := other.NewGain()

	if err := c.Connect(src, a); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.Connect(src, a); err != nil {
		t.Fatalf("duplicate Connect should be a no-op, got %v", err)
	}

	if err := c.Connect(a, b); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	tests := []struct {
		name     string
		from, to Node
		want     error
	}{
		{"cycle", b, a, ErrCycle},
		{"self", a, a, ErrCycle},
		{"foreign", a, foreign, ErrForeignNode},
		{"into source", a, src, ErrNotConnectable},
		{"out of destination", dest, a, ErrNotConnectable},
		{"nil", nil, a, ErrNotConnectable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := c.Connect(tc.from, tc.to); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if !c.Connected(src, a) || !c.Connected(a, b) || c.Connected(b, a) {
		t.Fatal("unexpected connection state")
	}

	if len(src.outputs) != 1 {
		t.Fatalf("source outputs = %d, want 1", len(src.outputs))
	}
}

func TestSourceRequiresAudioAtContextRate(t *testing.T) {
	c := mustContext(t, WithSampleRate(48000))

	if _, err := c.NewSource(media.NewStream(media.NewOpaqueTrack(media.KindVideo, "cam"))); !errors.Is(err, ErrNoAudioTrack) {
		t.Fatalf("video-only stream: err = %v, want %v", err, ErrNoAudioTrack)
	}

	if _, err := c.NewSource(nil); !errors.Is(err, ErrNoAudioTrack) {
		t.Fatalf("nil stream: err = %v, want %v", err, ErrNoAudioTrack)
	}

	if _, err := c.NewSource(testutil.MonoStream(44100, testutil.DC(1, 4))); !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("44.1k track: err = %v, want %v", err, ErrSampleRateMismatch)
	}
}

func TestDestinationTrimsToInputLength(t *testing.T) {
	for _, frames := range []int{1, 127, 128, 300, 1024} {
		c := mustContext(t, WithSampleRate(8000), WithBlockSize(128))
		in := testutil.Ramp(0.001, frames)

		out := renderThrough(t, c, in)
		testutil.RequireSliceNearlyEqual(t, out, in, 0)
	}
}

func TestSourceMixesChannelsAndTracks(t *testing.T) {
	c := mustContext(t, WithSampleRate(8000), WithBlockSize(16))

	stereo := media.NewSampleTrack("stereo", 8000, 2, []float64{1, 0, 0.5, 0.5, 0, 1})
	mono := media.NewSampleTrack("mono", 8000, 1, []float64{0.25, 0.25})
	video := media.NewOpaqueTrack(media.KindVideo, "cam")

	src, err := c.NewSource(media.NewStream(stereo, video, mono))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	dest := c.NewDestination()
	if err := c.Connect(src, dest); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	got := testutil.ReadTrack(t, dest.Track())
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.75, 0.75, 0.5}, 1e-15)

	if !src.Ended() || src.Err() != nil {
		t.Fatalf("source ended=%v err=%v, want ended without error", src.Ended(), src.Err())
	}
}

func TestCurrentTimeAdvancesPerQuantum(t *testing.T) {
	c := mustContext(t, WithSampleRate(1000), WithBlockSize(16))

	if got := c.CurrentTime(); got != 0 {
		t.Fatalf("CurrentTime = %v, want 0", got)
	}

	renderThrough(t, c, testutil.DC(1, 40))

	if got := c.CurrentFrame(); got != 48 {
		t.Fatalf("CurrentFrame = %d, want 48", got)
	}

	if got := c.CurrentTime(); got != 0.048 {
		t.Fatalf("CurrentTime = %v, want 0.048", got)
	}
}
