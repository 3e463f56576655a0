package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidCell      = errors.New("invalid cell value")
	ErrEmptyDataset     = errors.New("dataset has no observations")
	ErrUnsupportedInput = errors.New("unsupported input format")

	// Estimation errors
	ErrNotConverged     = errors.New("optimizer did not converge")
	ErrSingleCluster    = errors.New("cluster-robust variance needs at least two clusters")
	ErrDegreesOfFreedom = errors.New("observation count must exceed parameter count")
	ErrSingularHessian  = errors.New("hessian is singular")
	ErrNotSymmetric     = errors.New("matrix is not symmetric")
	ErrNegativeVariance = errors.New("negative variance on sandwich diagonal")
	ErrDimension        = errors.New("dimension mismatch")
)

// Error constructors with context
func NewMissingColumnError(source, column string) error {
	return fmt.Errorf("%w: %q in %s", ErrMissingColumn, column, source)
}

func NewInvalidCellError(source string, row int, column, value string) error {
	return fmt.Errorf("%w: %s row %d column %q value %q", ErrInvalidCell, source, row, column, value)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewDimensionError(what string, want, got int) error {
	return fmt.Errorf("%w: %s want %d got %d", ErrDimension, what, want, got)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrUnsupportedInput)
}
