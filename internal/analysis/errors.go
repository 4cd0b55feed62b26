package analysis

import "fmt"

// ModelFitError indicates a regression or clustering model could not be fit.
type ModelFitError struct {
	Model string
	Cause string
	Err   error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fit %s: %s: %v", e.Model, e.Cause, e.Err)
	}
	return fmt.Sprintf("fit %s: %s", e.Model, e.Cause)
}

func (e *ModelFitError) Unwrap() error { return e.Err }
