package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// StreamingOverlapSave implements streaming FFT-based convolution using
// overlap-save. Each block is transformed together with the last
// kernelLen-1 input samples and the circular wrap-around portion at the start
// of the result is discarded, so output has no added latency.
type StreamingOverlapSave struct {
	kernelFFT []complex128

	kernelLen int
	blockSize int
	fftSize   int // power of 2, >= blockSize + kernelLen - 1

	plan *algofft.Plan[complex128]

	inputBuffer  []complex128
	outputBuffer []complex128

	// history holds the last kernelLen-1 input samples.
	history []float64
}

// NewStreamingOverlapSave creates a streaming overlap-save convolver.
// blockSize is the fixed size of input and output blocks.
func NewStreamingOverlapSave(kernel []float64, blockSize int) (*StreamingOverlapSave, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	kernelLen := len(kernel)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	sos := &StreamingOverlapSave{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputBuffer:  make([]complex128, fftSize),
		outputBuffer: make([]complex128, fftSize),
		history:      make([]float64, kernelLen-1),
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}

	if err := plan.Forward(sos.kernelFFT, kernelPadded); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return sos, nil
}

// ProcessBlock convolves a single block and returns a new output block.
func (sos *StreamingOverlapSave) ProcessBlock(input []float64) ([]float64, error) {
	output := make([]float64, sos.blockSize)
	if err := sos.ProcessBlockTo(output, input); err != nil {
		return nil, err
	}

	return output, nil
}

// ProcessBlockTo convolves input block and writes to pre-allocated output.
// Both input and output must be of size blockSize; they may alias.
func (sos *StreamingOverlapSave) ProcessBlockTo(output, input []float64) error {
	if len(input) != sos.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d", ErrLengthMismatch, sos.blockSize, len(input))
	}

	if len(output) != sos.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, sos.blockSize, len(output))
	}

	clear(sos.inputBuffer)

	hist := sos.kernelLen - 1
	for i, v := range sos.history {
		sos.inputBuffer[i] = complex(v, 0)
	}

	for i, v := range input {
		sos.inputBuffer[hist+i] = complex(v, 0)
	}

	// The combined buffer is [history | input]; keep its last hist samples.
	if sos.blockSize >= hist {
		copy(sos.history, input[sos.blockSize-hist:])
	} else {
		copy(sos.history, sos.history[sos.blockSize:])
		copy(sos.history[hist-sos.blockSize:], input)
	}

	if err := sos.plan.Forward(sos.inputBuffer, sos.inputBuffer); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range sos.outputBuffer {
		sos.outputBuffer[i] = sos.inputBuffer[i] * sos.kernelFFT[i]
	}

	if err := sos.plan.Inverse(sos.inputBuffer, sos.outputBuffer); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	for i := range output {
		output[i] = real(sos.inputBuffer[hist+i])
	}

	return nil
}

// Reset clears the history buffer.
func (sos *StreamingOverlapSave) Reset() {
	clear(sos.history)
}

// BlockSize returns the block size.
func (sos *StreamingOverlapSave) BlockSize() int {
	return sos.blockSize
}

// KernelLen returns the kernel length.
func (sos *StreamingOverlapSave) KernelLen() int {
	return sos.kernelLen
}

// FFTSize returns the FFT size.
func (sos *StreamingOverlapSave) FFTSize() int {
	return sos.fftSize
}
