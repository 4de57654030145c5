package decode

import "errors"

// Common decode errors
var (
	// ErrUnsupportedFormat indicates the data is not in a known container
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidData indicates the container was recognised but is malformed
	ErrInvalidData = errors.New("invalid audio data")

	// ErrEmpty indicates decoding produced no frames
	ErrEmpty = errors.New("audio data contains no frames")

	// ErrUnsupportedDecoder indicates a value passed to Adapt has neither
	// decoder shape
	ErrUnsupportedDecoder = errors.New("value does not implement a decoder interface")
)
