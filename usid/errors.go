package usid

import "errors"

// Sentinel errors returned by the translation core. All failures are
// synchronous and abort the current call; there is no retry layer.
var (
	// ErrInvalidSize reports a non-positive dimension size.
	ErrInvalidSize = errors.New("dimension size must be a positive integer")

	// ErrShapeMismatch reports a per-axis array whose length does not
	// equal the dimension count.
	ErrShapeMismatch = errors.New("per-axis array length does not match dimension count")

	// ErrPayloadShape reports a dataset payload whose element count does
	// not match its declared shape.
	ErrPayloadShape = errors.New("payload length does not match dataset shape")

	// ErrDtype reports an unsupported payload element type.
	ErrDtype = errors.New("unsupported payload element type")

	// ErrLinkTarget reports a dataset that could not be resolved by name
	// after the container write.
	ErrLinkTarget = errors.New("dataset not resolvable after container write")

	// ErrMemoryBudget reports raw data larger than the translator's
	// memory budget.
	ErrMemoryBudget = errors.New("raw data exceeds translator memory budget")

	// ErrWriterClosed reports use of a container writer after Close.
	ErrWriterClosed = errors.New("container writer is closed")
)
