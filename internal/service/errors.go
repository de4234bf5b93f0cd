package service

import "errors"

var (
	ErrSameToken     = errors.New("src and dst are equal")
	ErrPairMismatch  = errors.New("pool does not hold src/dst")
	ErrEmptyReserves = errors.New("empty reserves")

	// ErrTradeNotPossible wraps pool math failures caused by the inputs or
	// the pool state. Retrying with the same state cannot succeed.
	ErrTradeNotPossible = errors.New("trade not possible")
)
