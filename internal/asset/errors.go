package asset

import (
	"errors"
	"fmt"
)

// LoadError reports a model that could not be fetched or parsed. Op is the stage that failed:
// "open", "fetch", "read" or "parse".
type LoadError struct {
	Source string
	Op     string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("asset: %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is, or wraps, a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
