// Package conv provides streaming FFT convolution.
//
// [StreamingOverlapSave] convolves fixed-size input blocks with a kernel
// while keeping the input history needed for continuity between blocks:
//
//	c, err := conv.NewStreamingOverlapSave(kernel, blockSize)
//	err = c.ProcessBlockTo(out, in)
package conv
