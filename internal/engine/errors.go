package engine

import (
	"errors"
	"fmt"
)

// Selection failures. Callers test with errors.Is; the wrapped message
// carries the diagnostic detail (requested name, registry contents).
var (
	ErrUnknownEngine     = errors.New("unknown engine")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrNoSuitableEngine  = errors.New("no suitable engine")
)

// ExtractionError wraps a failure inside an engine's own processing.
// Fatal only to the single (file, engine) invocation that produced it.
type ExtractionError struct {
	Engine string
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("engine %q failed on %q: %v", e.Engine, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps err unless it already is an ExtractionError.
func NewExtractionError(engineName, path string, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExtractionError{Engine: engineName, Path: path, Err: err}
}
