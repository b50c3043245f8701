package kpm

import "errors"

// ErrInvalidMatrix is returned when the Hamiltonian argument is nil or not a
// usable square operator.
var ErrInvalidMatrix = errors.New("kpm: hamiltonian is not a valid square operator")

// ErrInvalidOperator is returned when the operator argument is neither a
// bilinear form, a matvec operator, nor a form callable, or when its
// dimension does not match the Hamiltonian.
var ErrInvalidOperator = errors.New("kpm: invalid bilinear operator")

// ErrDegenerateSpectrum is returned when the spectrum is too flat to rescale
// into (-1, 1); such input is unsuitable for the kernel polynomial method.
var ErrDegenerateSpectrum = errors.New("kpm: spectrum has a single eigenvalue, cannot obtain a spectral density")

// ErrInsufficientSamplingResolution is returned when the requested number of
// sampling points is smaller than the number of moments.
var ErrInsufficientSamplingResolution = errors.New("kpm: number of sampling points must be at least the number of moments")

// ErrInvalidGrowthRequest is returned when a single moment update tries to
// grow both the moment count and the random-vector count.
var ErrInvalidGrowthRequest = errors.New("kpm: moments and random vectors cannot grow in the same update")
