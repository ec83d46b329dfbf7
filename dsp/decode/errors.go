package decode

import "errors"

var (
	// ErrUnknownFormat indicates the data matches no supported container.
	ErrUnknownFormat = errors.New("decode: unknown audio format")

	// ErrUnsupportedEncoding indicates a known container with an encoding
	// this package cannot read, such as floating point WAV.
	ErrUnsupportedEncoding = errors.New("decode: unsupported encoding")

	// ErrMalformed indicates the container was recognised but could not be
	// decoded, or held no samples.
	ErrMalformed = errors.New("decode: malformed audio data")

	// ErrInvalidRate indicates a non-positive target sample rate.
	ErrInvalidRate = errors.New("decode: target sample rate must be positive")
)
