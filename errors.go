package htmlbook

import "errors"

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when using a [Document] after [Document.Close].
	ErrClosed = errors.New("htmlbook: document is closed")

	// ErrSinkFull is returned by a [Sink] when a write would grow it past
	// its size limit. Renders that hit it fail as a whole.
	ErrSinkFull = errors.New("htmlbook: output exceeds the maximum size")
)

// EngineError is returned when the rendering engine reports a failure.
// Its message is the engine's own message.
type EngineError struct {
	// Op names the failing method, e.g. "loadHtml" or "writeToPdf".
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return e.Err.Error()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
