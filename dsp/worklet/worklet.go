// Package worklet loads JavaScript processor modules into an audioctx
// context.
//
// A module is evaluated once per context in its own goja runtime. It defines
// processors by subclassing AudioWorkletProcessor and calling
// registerProcessor(name, class). Each registered class becomes an
// audioctx.ProcessorFactory; instances receive {processorOptions} in their
// constructor and have process(inputs, outputs, parameters) called once per
// render quantum with one mono channel per input and output.
//
// The globals sampleRate, currentFrame and currentTime are available to the
// module. process may return false to stop; any other result keeps the
// processor running.
package worklet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/internal/logging"
)

var (
	// ErrFetch wraps failures to retrieve a module's source.
	ErrFetch = errors.New("worklet: fetch module")

	// ErrEvaluate wraps syntax errors, uncaught exceptions, invalid
	// registerProcessor calls and name clashes while adding a module.
	ErrEvaluate = errors.New("worklet: evaluate module")

	// ErrInvalidProcessor indicates a registered class whose instances
	// cannot process audio.
	ErrInvalidProcessor = errors.New("worklet: invalid processor")
)

const prelude = `
globalThis.AudioWorkletProcessor = class AudioWorkletProcessor {
	constructor(options) {
		this.port = null;
	}
};
`

// Fetcher retrieves module source.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Loader adds modules fetched by location. Adding the same location to the
// same context twice is a no-op.
type Loader struct {
	fetcher Fetcher
	mu      sync.Mutex
}

// NewLoader returns a Loader reading modules through f.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// AddModule fetches the module at location and evaluates it in actx.
func (l *Loader) AddModule(ctx context.Context, actx *audioctx.Context, location string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if actx.ModuleLoaded(location) {
		logging.Debug(logging.CategoryWorklet, "module already loaded location=%s", location)
		return nil
	}

	src, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFetch, location, err)
	}

	return Evaluate(ctx, actx, location, string(src))
}

type registration struct {
	name string
	ctor goja.Constructor
}

// module is one evaluated script. Its runtime is not safe for concurrent
// use, so every call into it holds mu.
type module struct {
	mu       sync.Mutex
	vm       *goja.Runtime
	location string
}

// Evaluate runs source as the module named location and registers its
// processors with actx. Nothing is registered unless the whole module
// evaluates cleanly.
func Evaluate(ctx context.Context, actx *audioctx.Context, location, source string) error {
	vm := goja.New()
	m := &module{vm: vm, location: location}

	var regs []registration

	if _, err := vm.RunString(prelude); err != nil {
		return fmt.Errorf("%w: prelude: %w", ErrEvaluate, err)
	}

	_ = vm.Set("sampleRate", actx.SampleRate())
	_ = vm.Set("currentFrame", 0)
	_ = vm.Set("currentTime", 0.0)
	_ = vm.Set("registerProcessor", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0)
		if _, ok := name.Export().(string); !ok || strings.TrimSpace(name.String()) == "" {
			panic(vm.NewTypeError("registerProcessor: name must be a non-empty string"))
		}

		ctor, ok := goja.AssertConstructor(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("registerProcessor: %s: processor must be a class", name.String()))
		}

		for _, r := range regs {
			if r.name == name.String() {
				panic(vm.NewTypeError("registerProcessor: %s registered twice", name.String()))
			}
		}

		regs = append(regs, registration{name: name.String(), ctor: ctor})

		return goja.Undefined()
	})

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })

	_, err := vm.RunScript(location, source)
	if !stop() {
		if err == nil {
			err = ctx.Err()
		}

		return fmt.Errorf("%w: %s: %w", ErrEvaluate, location, err)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEvaluate, location, err)
	}

	for _, r := range regs {
		if actx.HasProcessor(r.name) {
			return fmt.Errorf("%w: %s: processor %q already registered", ErrEvaluate, location, r.name)
		}
	}

	for _, r := range regs {
		if err := actx.RegisterProcessor(r.name, m.factory(r)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEvaluate, location, err)
		}

		logging.Debug(logging.CategoryWorklet, "registered processor name=%s location=%s", r.name, location)
	}

	actx.SetModuleLoaded(location)

	return nil
}

func (m *module) factory(r registration) audioctx.ProcessorFactory {
	return func(opts audioctx.ProcessorOptions) (audioctx.Processor, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		arg := m.vm.NewObject()

		processorOptions := opts.Options
		if processorOptions == nil {
			processorOptions = map[string]any{}
		}

		_ = arg.Set("processorOptions", processorOptions)

		obj, err := r.ctor(nil, arg)
		if err != nil {
			return nil, fmt.Errorf("worklet: construct %q: %w", r.name, err)
		}

		process, ok := goja.AssertFunction(obj.Get("process"))
		if !ok {
			return nil, fmt.Errorf("%w: %q has no process method", ErrInvalidProcessor, r.name)
		}

		return &processor{module: m, name: r.name, this: obj, process: process}, nil
	}
}

// processor adapts a script object to audioctx.Processor.
type processor struct {
	module  *module
	name    string
	this    *goja.Object
	process goja.Callable

	frame   int64
	seconds float64

	in, out *goja.Object
	length  int
}

func (p *processor) SetCurrentTime(frame int64, seconds float64) {
	p.frame = frame
	p.seconds = seconds
}

func (p *processor) buffers(n int) error {
	if p.in != nil && p.length == n {
		return nil
	}

	vm := p.module.vm
	f32 := vm.Get("Float32Array")

	in, err := vm.New(f32, vm.ToValue(n))
	if err != nil {
		return err
	}

	out, err := vm.New(f32, vm.ToValue(n))
	if err != nil {
		return err
	}

	p.in, p.out, p.length = in, out, n

	return nil
}

func (p *processor) Process(in, out []float64) (bool, error) {
	p.module.mu.Lock()
	defer p.module.mu.Unlock()

	vm := p.module.vm

	if err := p.buffers(len(in)); err != nil {
		return false, fmt.Errorf("worklet: %s: allocate buffers: %w", p.name, err)
	}

	_ = vm.Set("currentFrame", p.frame)
	_ = vm.Set("currentTime", p.seconds)

	for i, v := range in {
		key := strconv.Itoa(i)
		_ = p.in.Set(key, v)
		_ = p.out.Set(key, 0)
	}

	inputs := vm.NewArray(vm.NewArray(p.in))
	outputs := vm.NewArray(vm.NewArray(p.out))

	ret, err := p.process(p.this, inputs, outputs, vm.NewObject())
	if err != nil {
		return false, err
	}

	for i := range out {
		out[i] = p.out.Get(strconv.Itoa(i)).ToFloat()
	}

	if b, ok := ret.Export().(bool); ok && !b {
		return false, nil
	}

	return true, nil
}
