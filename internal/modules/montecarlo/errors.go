package montecarlo

import "errors"

// Error kinds returned by the simulation and estimation functions.
// Callers match them with errors.Is; returned errors wrap one of these with context.
var (
	// ErrInvalidParameter reports a non-positive scenario count, time step,
	// resample count, an out-of-range confidence level, a negative or
	// non-finite volatility, or any other non-finite input.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch reports portfolio vectors whose lengths disagree
	// with each other or with the correlation matrix.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNonPositiveDefiniteCovariance reports a covariance matrix that the
	// Cholesky factorisation rejected.
	ErrNonPositiveDefiniteCovariance = errors.New("covariance matrix is not positive definite")

	// ErrInsufficientData reports an empty loss sample.
	ErrInsufficientData = errors.New("insufficient data")
)
