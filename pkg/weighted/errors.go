package weighted

import "errors"

var (
	// ErrInvalidDomainInput is returned when a weight, balance or total
	// weight in divisor position is not positive, an amount is negative, or
	// the swap fee is outside [0, 1).
	ErrInvalidDomainInput = errors.New("invalid domain input")

	// ErrInvariantViolation is returned by CalcInGivenOut when the requested
	// output would drain the reserve entirely or more.
	ErrInvariantViolation = errors.New("pool invariant violation")

	// ErrNumericOverflow is returned when a result exceeds the supported
	// range of the exponential.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrPrecisionLoss is returned when a series fails to converge or a
	// result would round to zero at the working precision.
	ErrPrecisionLoss = errors.New("precision loss")
)
