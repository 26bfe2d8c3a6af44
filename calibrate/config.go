package calibrate

// Config holds solver parameters for the BDT calibration.
type Config struct {
	// InitialGuess seeds every drift parameter (percent) when a Problem
	// carries no explicit starting vector.
	InitialGuess float64

	// ObjectiveTolerance stops the search once the scaled squared error
	// Σ (100·Δ)² falls below it.
	ObjectiveTolerance float64

	// GradientThreshold stops the search once the gradient norm falls below it.
	GradientThreshold float64

	// MaxIterations caps major iterations of each optimizer attempt.
	MaxIterations int

	// MaxEvaluations caps objective evaluations of each optimizer attempt.
	// Zero means no cap.
	MaxEvaluations int

	// GradientStep is the finite-difference step in percent.
	GradientStep float64

	// FallbackNelderMead retries a non-converged BFGS run with Nelder-Mead
	// from the best point found.
	FallbackNelderMead bool
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	InitialGuess:       5,
	ObjectiveTolerance: 1e-16,
	GradientThreshold:  1e-9,
	MaxIterations:      1000,
	MaxEvaluations:     0,
	GradientStep:       1e-6,
	FallbackNelderMead: true,
}
