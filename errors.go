package compositor

import "errors"

var (
	// ErrClosed is returned by a renderer after Close.
	ErrClosed = errors.New("compositor: renderer closed")

	// ErrInvalidConfig is wrapped by configuration errors.
	ErrInvalidConfig = errors.New("compositor: invalid config")

	// ErrNilFrame is returned when RenderPass is given no frame.
	ErrNilFrame = errors.New("compositor: nil frame")
)
