package fxchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/internal/logging"
	"github.com/cwbudde/algo-streamfx/media"
)

// State is the lifecycle state of a Chain.
type State int

const (
	Building State = iota
	Finalized
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Chain.
type Option func(*chainConfig)

type chainConfig struct {
	fetcher Fetcher
	decoder BufferDecoder
	modules ModuleRegistrar
	loader  *Loader
}

// WithFetcher sets the fetcher used for impulse responses and, unless a
// registrar is given, for script modules.
func WithFetcher(f Fetcher) Option {
	return func(cfg *chainConfig) { cfg.fetcher = f }
}

// WithDecoder sets the impulse response decoder.
func WithDecoder(d BufferDecoder) Option {
	return func(cfg *chainConfig) { cfg.decoder = d }
}

// WithModuleRegistrar sets the script module registrar.
func WithModuleRegistrar(m ModuleRegistrar) Option {
	return func(cfg *chainConfig) { cfg.modules = m }
}

// WithLoader replaces the resource loader. It takes precedence over the
// other loader options.
func WithLoader(l *Loader) Option {
	return func(cfg *chainConfig) { cfg.loader = l }
}

// Chain is an append-only sequence of stages running in one audioctx
// context. The first stage wraps the input's audio; every appended stage is
// fed by the previous tail. Methods are safe for concurrent use, but the
// relative order of concurrent appends is unspecified.
type Chain struct {
	mu sync.Mutex

	actx   *audioctx.Context
	input  *media.Stream
	loader *Loader

	stages []*Stage
	tail   *Stage
	state  State
	output *media.Stream
}

// New binds a chain to actx and the audio of input.
func New(actx *audioctx.Context, input *media.Stream, opts ...Option) (*Chain, error) {
	if actx == nil {
		return nil, errors.New("fxchain: nil audio context")
	}

	cfg := chainConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	loader := cfg.loader
	if loader == nil {
		loader = NewLoader(cfg.fetcher, cfg.decoder, cfg.modules)
	}

	src, err := actx.NewSource(input)
	if err != nil {
		if errors.Is(err, audioctx.ErrNoAudioTrack) {
			return nil, fmt.Errorf("%w: %w", ErrNoAudioTrack, err)
		}

		return nil, fmt.Errorf("fxchain: source: %w", err)
	}

	source := newStage(KindSource, 0, nil, src)

	logging.Debug(logging.CategoryChain, "chain created stream=%s sampleRate=%v", input.ID(), actx.SampleRate())

	return &Chain{
		actx:   actx,
		input:  input,
		loader: loader,
		stages: []*Stage{source},
		tail:   source,
	}, nil
}

// Append resolves cfg, loads its resources, builds the stage and connects
// it after the current tail. On failure the chain is left unchanged.
func (c *Chain) Append(ctx context.Context, cfg Config) (*Stage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var kind Kind
	if cfg != nil {
		kind = cfg.Kind()
	}

	stageErr := func(err error) error {
		return &StageError{Op: "append", Kind: kind, Position: len(c.stages), Err: err}
	}

	if c.state == Finalized {
		return nil, stageErr(ErrAlreadyFinalized)
	}

	resolved, err := Resolve(cfg)
	if err != nil {
		return nil, stageErr(err)
	}

	loaded, err := c.loader.Load(ctx, c.actx, resolved)
	if err != nil {
		return nil, stageErr(err)
	}

	node, err := create(c.actx, loaded)
	if err != nil {
		return nil, stageErr(err)
	}

	if err := c.actx.Connect(c.tail.node, node); err != nil {
		return nil, stageErr(fmt.Errorf("fxchain: connect: %w", err))
	}

	stage := newStage(kind, len(c.stages), loaded, node)
	c.stages = append(c.stages, stage)
	c.tail = stage

	logging.Debug(logging.CategoryChain, "stage appended stage=%s id=%s", stage, stage.id)

	return stage, nil
}

// AppendSpec parses a kind name and generic parameters and appends the
// resulting stage.
func (c *Chain) AppendSpec(ctx context.Context, kind string, params map[string]any) (*Stage, error) {
	cfg, err := ParseSpec(kind, params)
	if err != nil {
		c.mu.Lock()
		pos := len(c.stages)
		c.mu.Unlock()

		k, _ := ParseKind(kind)

		return nil, &StageError{Op: "append", Kind: k, Name: kind, Position: pos, Err: err}
	}

	return c.Append(ctx, cfg)
}

// Finalize connects the tail to a sink and returns the output stream: the
// processed audio plus the input's non-audio tracks. It succeeds once.
func (c *Chain) Finalize() (*media.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Finalized {
		return nil, &StageError{Op: "finalize", Kind: KindSink, Position: len(c.stages) - 1, Err: ErrAlreadyFinalized}
	}

	dest := c.actx.NewDestination()
	if err := c.actx.Connect(c.tail.node, dest); err != nil {
		return nil, &StageError{Op: "finalize", Kind: KindSink, Position: len(c.stages), Err: err}
	}

	sink := newStage(KindSink, len(c.stages), nil, dest)
	c.stages = append(c.stages, sink)
	c.tail = sink
	c.state = Finalized
	c.output = Compose(dest.Stream(), c.input)

	logging.Info(logging.CategoryChain, "chain finalized stages=%d output=%s", len(c.stages), c.output.ID())

	return c.output, nil
}

// Stages returns a copy of the stage sequence, source first.
func (c *Chain) Stages() []*Stage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Stage, len(c.stages))
	copy(out, c.stages)

	return out
}

// Len returns the number of stages including source and, once finalized,
// sink.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.stages)
}

func (c *Chain) Tail() *Stage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tail
}

func (c *Chain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Output returns the stream produced by Finalize, or nil before it.
func (c *Chain) Output() *media.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.output
}

func (c *Chain) Context() *audioctx.Context { return c.actx }

func (c *Chain) Input() *media.Stream { return c.input }
