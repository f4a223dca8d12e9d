package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Domain errors for simulation and control operations.
var (
	// ErrInvalidState indicates model state holding NaN or Inf.
	ErrInvalidState = errors.New("engine: invalid state (NaN or Inf detected)")

	// ErrDiverged indicates the model left its numerically stable region.
	ErrDiverged = errors.New("engine: simulation diverged")

	// ErrParameterBounds indicates a parameter value is outside its declared range.
	ErrParameterBounds = errors.New("engine: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name the simulation does not declare.
	ErrUnknownParam = errors.New("engine: unknown parameter")

	// ErrLocked indicates a topology parameter changed while playing.
	ErrLocked = errors.New("engine: parameter locked while playing")

	// ErrFinished indicates the simulation already reached its terminal state.
	ErrFinished = errors.New("engine: simulation finished, reset to replay")

	// ErrUnknownAlgorithm indicates a name missing from the registry.
	ErrUnknownAlgorithm = errors.New("engine: unknown algorithm")

	// ErrNotInitialized indicates Step or Draw before Init.
	ErrNotInitialized = errors.New("engine: simulation not initialized")
)

func UnknownParam(name string) error {
	return errors.Wrapf(ErrUnknownParam, "%q", name)
}

// StepError wraps a failure with the iteration it happened on.
type StepError struct {
	Iteration int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Cause() error {
	return e.Err
}
