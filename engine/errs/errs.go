// Package errs holds the sentinel errors shared by the caches, passes and the
// engine loop. Callers wrap them with fmt.Errorf("...: %w", ...) and match with errors.Is.
package errs

import "errors"

var (
	// ErrNotFound reports a missing or unreadable shader, texture or model file.
	ErrNotFound = errors.New("asset not found")

	// ErrUnsupportedFormat reports a texture pixel layout or shader file extension
	// with no supported mapping.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIncludeDepthExceeded reports a shader #include chain deeper than the limit.
	ErrIncludeDepthExceeded = errors.New("include depth exceeded")

	// ErrCompilation reports shader source rejected by the compiler.
	ErrCompilation = errors.New("shader compilation failed")

	// ErrFrameUnavailable reports a transient swapchain acquisition failure.
	ErrFrameUnavailable = errors.New("frame unavailable")

	// ErrMissingAttribute reports a model without a vertex stream a pass requires.
	ErrMissingAttribute = errors.New("missing vertex attribute")

	// ErrModelNotInFile reports a model name that is absent from an already loaded file.
	ErrModelNotInFile = errors.New("model not found in file")

	// ErrClosed reports use of a released pass or a shut down core.
	ErrClosed = errors.New("use of released resource")

	// ErrInvalidConfig reports a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
