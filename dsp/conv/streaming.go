package conv

// StreamingConvolver performs block-by-block convolution with persistent state.
type StreamingConvolver interface {
	// ProcessBlock convolves a single input block and returns the output block.
	ProcessBlock(input []float64) ([]float64, error)

	// ProcessBlockTo convolves input into a pre-allocated output. Both must
	// be BlockSize samples long.
	ProcessBlockTo(output, input []float64) error

	// Reset clears internal state for processing a new signal stream.
	Reset()

	BlockSize() int
	KernelLen() int
	FFTSize() int
}

var _ StreamingConvolver = (*StreamingOverlapSave)(nil)
