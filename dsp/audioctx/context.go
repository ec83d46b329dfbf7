package audioctx

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultSampleRate is used when no WithSampleRate option is given.
	DefaultSampleRate = 48000.0
	// DefaultBlockSize is the render quantum in frames.
	DefaultBlockSize = 128

	minBlockSize = 16
	maxBlockSize = 16384
)

type config struct {
	sampleRate float64
	blockSize  int
}

// Option configures a Context.
type Option func(*config)

// WithSampleRate sets the processing sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) { cfg.sampleRate = sampleRate }
}

// WithBlockSize sets the render quantum in frames.
func WithBlockSize(blockSize int) Option {
	return func(cfg *config) { cfg.blockSize = blockSize }
}

// Context owns a processing graph and drives its rendering.
//
// Graph construction and rendering are guarded by one mutex. A Context is
// meant to be pulled by a single DestinationNode; several destinations on the
// same context share one timeline.
type Context struct {
	mu sync.Mutex

	sampleRate float64
	blockSize  int
	frame      int64
	nextID     int

	processors map[string]ProcessorFactory
	modules    map[string]struct{}
}

// New creates a Context. Without options it runs at DefaultSampleRate with
// DefaultBlockSize frames per quantum.
func New(opts ...Option) (*Context, error) {
	cfg := config{sampleRate: DefaultSampleRate, blockSize: DefaultBlockSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.sampleRate <= 0 || math.IsNaN(cfg.sampleRate) || math.IsInf(cfg.sampleRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, cfg.sampleRate)
	}

	if cfg.blockSize < minBlockSize || cfg.blockSize > maxBlockSize || cfg.blockSize&(cfg.blockSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, cfg.blockSize)
	}

	return &Context{
		sampleRate: cfg.sampleRate,
		blockSize:  cfg.blockSize,
		processors: make(map[string]ProcessorFactory),
		modules:    make(map[string]struct{}),
	}, nil
}

// SampleRate returns the processing sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.sampleRate }

// BlockSize returns the number of frames rendered per quantum.
func (c *Context) BlockSize() int { return c.blockSize }

// CurrentTime returns the start time in seconds of the next quantum to render.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now()
}

// CurrentFrame returns the index of the next frame to render.
func (c *Context) CurrentFrame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frame
}

func (c *Context) now() float64 {
	return float64(c.frame) / c.sampleRate
}

// Connect routes the output of from into the input of to. Connecting the same
// pair twice is a no-op. Connections are permanent.
func (c *Context) Connect(from, to Node) error {
	if from == nil || to == nil {
		return fmt.Errorf("%w: nil node", ErrNotConnectable)
	}

	src, dst := from.base(), to.base()
	if src.ctx != c || dst.ctx != c {
		return ErrForeignNode
	}

	if src.numOutputs == 0 {
		return fmt.Errorf("%w: %s has no outputs", ErrNotConnectable, src.typ)
	}

	if dst.numInputs == 0 {
		return fmt.Errorf("%w: %s has no inputs", ErrNotConnectable, dst.typ)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if src == dst || reaches(dst, src) {
		return fmt.Errorf("%w: %s(%d) -> %s(%d)", ErrCycle, src.typ, src.id, dst.typ, dst.id)
	}

	for _, out := range src.outputs {
		if out == dst {
			return nil
		}
	}

	src.outputs = append(src.outputs, dst)
	dst.inputs = append(dst.inputs, src)

	return nil
}

// Connected reports whether from feeds directly into to.
func (c *Context) Connected(from, to Node) bool {
	if from == nil || to == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	src, dst := from.base(), to.base()
	for _, out := range src.outputs {
		if out == dst {
			return true
		}
	}

	return false
}

// reaches reports whether target is downstream of n.
func reaches(n, target *nodeBase) bool {
	for _, out := range n.outputs {
		if out == target || reaches(out, target) {
			return true
		}
	}

	return false
}

// upstream collects n and every node feeding it, each once.
func upstream(n *nodeBase) []*nodeBase {
	seen := map[*nodeBase]struct{}{}

	var out []*nodeBase

	var walk func(*nodeBase)
	walk = func(node *nodeBase) {
		if _, ok := seen[node]; ok {
			return
		}

		seen[node] = struct{}{}
		out = append(out, node)

		for _, in := range node.inputs {
			walk(in)
		}
	}
	walk(n)

	return out
}

// tailOf returns the longest chain of node tails ending at n.
func tailOf(n *nodeBase) int {
	longest := 0
	for _, in := range n.inputs {
		longest = max(longest, tailOf(in))
	}

	if t, ok := n.impl.(tailer); ok {
		longest += t.tailFrames()
	}

	return longest
}

func (c *Context) newBase(typ string, numInputs, numOutputs int, impl processor) nodeBase {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	return nodeBase{
		ctx:        c,
		id:         id,
		typ:        typ,
		numInputs:  numInputs,
		numOutputs: numOutputs,
		impl:       impl,
		in:         make([]float64, c.blockSize),
		out:        make([]float64, c.blockSize),
		rendered:   -1,
	}
}

// pull renders n for the given quantum, rendering its inputs first. The caller
// holds c.mu.
func (c *Context) pull(n *nodeBase, quantum int64) []float64 {
	if n.rendered == quantum {
		return n.out
	}

	n.rendered = quantum

	clear(n.in)

	for _, src := range n.inputs {
		vecmath.AddBlockInPlace(n.in, c.pull(src, quantum))
	}

	n.impl.process(n.in, n.out)

	return n.out
}

// renderQuantum renders one quantum ending at dest and advances the timeline.
// The caller holds c.mu.
func (c *Context) renderQuantum(dest *nodeBase) []float64 {
	quantum := c.frame / int64(c.blockSize)
	out := c.pull(dest, quantum)
	c.frame += int64(c.blockSize)

	return out
}
