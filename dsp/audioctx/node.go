package audioctx

// Node types as reported by Node.Type.
const (
	TypeSource       = "source"
	TypeDestination  = "destination"
	TypeGain         = "gain"
	TypeBiquadFilter = "biquad-filter"
	TypeCompressor   = "dynamics-compressor"
	TypeDelay        = "delay"
	TypeConvolver    = "convolver"
	TypeWaveShaper   = "wave-shaper"
	TypeScript       = "script"
)

// Node is a processing unit of a Context. Nodes are created by the context
// and can only be connected within it.
type Node interface {
	ID() int
	Type() string
	Context() *Context
	NumberOfInputs() int
	NumberOfOutputs() int

	base() *nodeBase
}

// processor is the per-quantum rendering contract of a concrete node. in is
// the sum of all connected inputs, out must be fully written.
type processor interface {
	process(in, out []float64)
}

// tailer is implemented by nodes that keep producing output after their
// input fell silent.
type tailer interface {
	tailFrames() int
}

type nodeBase struct {
	ctx        *Context
	id         int
	typ        string
	numInputs  int
	numOutputs int
	impl       processor

	inputs  []*nodeBase
	outputs []*nodeBase

	in       []float64
	out      []float64
	rendered int64
}

func (n *nodeBase) ID() int              { return n.id }
func (n *nodeBase) Type() string         { return n.typ }
func (n *nodeBase) Context() *Context    { return n.ctx }
func (n *nodeBase) NumberOfInputs() int  { return n.numInputs }
func (n *nodeBase) NumberOfOutputs() int { return n.numOutputs }
func (n *nodeBase) base() *nodeBase      { return n }
