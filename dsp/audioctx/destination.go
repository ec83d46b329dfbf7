package audioctx

import (
	"io"
	"sync"

	"github.com/cwbudde/algo-streamfx/media"
)

// DestinationNode materializes its input as the single audio track of a new
// stream. Reading that track renders the graph. The track ends once every
// upstream source is exhausted and the longest upstream tail has played out.
type DestinationNode struct {
	nodeBase

	stream *media.Stream
	track  *media.FuncTrack

	readMu  sync.Mutex
	pending []float64
	buf     []float64

	finished bool
	end      int64
	endKnown bool
}

// NewDestination creates a sink node with one input and no outputs.
func (c *Context) NewDestination() *DestinationNode {
	d := &DestinationNode{buf: make([]float64, 0, c.blockSize)}
	d.nodeBase = c.newBase(TypeDestination, 1, 0, d)
	d.track = media.NewFuncTrack("processed", c.sampleRate, 1, d.read)
	d.stream = media.NewStream(d.track)

	return d
}

// Stream returns the stream carrying the processed audio.
func (d *DestinationNode) Stream() *media.Stream { return d.stream }

// Track returns the processed audio track.
func (d *DestinationNode) Track() media.AudioTrack { return d.track }

func (d *DestinationNode) process(in, out []float64) {
	copy(out, in)
}

func (d *DestinationNode) read(dst []float64) (int, error) {
	d.readMu.Lock()
	defer d.readMu.Unlock()

	n := 0
	for n < len(dst) {
		if len(d.pending) == 0 {
			if d.finished {
				break
			}

			d.renderNext()

			continue
		}

		k := copy(dst[n:], d.pending)
		d.pending = d.pending[k:]
		n += k
	}

	if n == 0 && d.finished {
		return 0, io.EOF
	}

	return n, nil
}

func (d *DestinationNode) renderNext() {
	c := d.ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.frame
	out := c.renderQuantum(&d.nodeBase)
	valid := int64(len(out))

	if end, ok := d.endFrame(); ok && end-start <= valid {
		valid = max(end-start, 0)
		d.finished = true
	}

	d.buf = append(d.buf[:0], out[:valid]...)
	d.pending = d.buf
}

// endFrame returns the frame at which output stops, once it is known. The
// caller holds the context mutex.
func (d *DestinationNode) endFrame() (int64, bool) {
	if d.endKnown {
		return d.end, true
	}

	end := int64(0)

	for _, n := range upstream(&d.nodeBase) {
		src, ok := n.impl.(*SourceNode)
		if !ok {
			continue
		}

		if !src.ended {
			return 0, false
		}

		end = max(end, src.endFrame)
	}

	d.end = end + int64(tailOf(&d.nodeBase))
	d.endKnown = true

	return d.end, true
}
