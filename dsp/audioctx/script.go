package audioctx

import (
	"fmt"
	"strings"
)

// Processor is a user-defined per-quantum processing routine. Process fills
// out from in and reports whether the processor wants to keep running.
type Processor interface {
	Process(in, out []float64) (bool, error)
}

// ClockedProcessor is a Processor that wants the render position of each
// quantum before it is processed.
type ClockedProcessor interface {
	Processor
	SetCurrentTime(frame int64, seconds float64)
}

// ProcessorOptions are handed to a ProcessorFactory when a script node is
// created.
type ProcessorOptions struct {
	ProcessorName string
	Options       map[string]any
}

// ProcessorFactory instantiates a registered processor.
type ProcessorFactory func(ProcessorOptions) (Processor, error)

// RegisterProcessor makes a processor available under name for NewScriptNode.
func (c *Context) RegisterProcessor(name string, factory ProcessorFactory) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidProcessorName
	}

	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidParameter, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.processors[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProcessor, name)
	}

	c.processors[name] = factory

	return nil
}

// HasProcessor reports whether a processor is registered under name.
func (c *Context) HasProcessor(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.processors[name]

	return ok
}

// ModuleLoaded reports whether the script module at location was already
// added to this context.
func (c *Context) ModuleLoaded(location string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.modules[location]

	return ok
}

// SetModuleLoaded records that the script module at location was added.
func (c *Context) SetModuleLoaded(location string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modules[location] = struct{}{}
}

// ScriptNode runs a registered Processor. Once the processor fails or asks to
// stop, the node outputs silence and keeps the first error.
type ScriptNode struct {
	nodeBase

	name    string
	proc    Processor
	stopped bool
	err     error
}

// NewScriptNode instantiates the processor registered under name.
func (c *Context) NewScriptNode(name string, opts map[string]any) (*ScriptNode, error) {
	c.mu.Lock()
	factory, ok := c.processors[name]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProcessorNotFound, name)
	}

	proc, err := factory(ProcessorOptions{ProcessorName: name, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("audioctx: instantiate processor %q: %w", name, err)
	}

	if proc == nil {
		return nil, fmt.Errorf("audioctx: instantiate processor %q: factory returned nil", name)
	}

	n := &ScriptNode{name: name, proc: proc}
	n.nodeBase = c.newBase(TypeScript, 1, 1, n)

	return n, nil
}

// ProcessorName returns the name the node was created from.
func (n *ScriptNode) ProcessorName() string { return n.name }

// Err returns the first error raised by the processor.
func (n *ScriptNode) Err() error {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return n.err
}

func (n *ScriptNode) process(in, out []float64) {
	clear(out)

	if n.stopped {
		return
	}

	if cp, ok := n.proc.(ClockedProcessor); ok {
		cp.SetCurrentTime(n.ctx.frame, n.ctx.now())
	}

	keep, err := n.proc.Process(in, out)
	if err != nil {
		n.err = fmt.Errorf("audioctx: processor %q: %w", n.name, err)
		n.stopped = true

		clear(out)

		return
	}

	if !keep {
		n.stopped = true
	}
}
