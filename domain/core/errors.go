package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Moniker and registry errors
	ErrReservedMoniker = errors.New("cannot overwrite a reserved feature table moniker")
	ErrTableNotFound   = errors.New("feature table not found")

	// Table shape errors
	ErrMissingColumn = errors.New("required column missing")
	ErrNoSamples     = errors.New("no sample columns in feature table")
	ErrShapeMismatch = errors.New("column length does not match table row count")

	// Transform configuration errors
	ErrInsufficientBatches = errors.New("batch correction requires at least two batches")
	ErrUnknownStatMode     = errors.New("unknown descriptive statistic mode")
	ErrUnknownLogMode      = errors.New("unknown log transform mode")
	ErrUnknownLogicMode    = errors.New("unknown logic mode")

	// Analysis errors
	ErrUnknownAnalysis = errors.New("no analyzer registered for analysis")

	// Persistence errors
	ErrSaveFailed = errors.New("failed to persist feature table")
)

// NewMissingColumnError reports a required column absent from a table.
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

// NewUnknownAnalysisError reports a requested analysis with no registered analyzer.
func NewUnknownAnalysisError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownAnalysis, name)
}

// NewSaveError wraps an underlying persistence failure.
func NewSaveError(moniker string, err error) error {
	return fmt.Errorf("%w: moniker %s: %v", ErrSaveFailed, moniker, err)
}

// IsConfigurationError reports whether err is a fail-fast configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrReservedMoniker) ||
		errors.Is(err, ErrInsufficientBatches) ||
		errors.Is(err, ErrUnknownStatMode) ||
		errors.Is(err, ErrUnknownLogMode) ||
		errors.Is(err, ErrUnknownLogicMode)
}

// IsPersistenceError reports whether err came from writing an artifact.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrSaveFailed)
}
