package weighted

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func requirePositive(name string, d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidDomainInput, name, d)
	}
	return nil
}

func requireNonNegative(name string, d decimal.Decimal) error {
	if d.Sign() < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidDomainInput, name, d)
	}
	return nil
}

func requireSwapFee(fee decimal.Decimal) error {
	if fee.Sign() < 0 || fee.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: swapFee must be in [0, 1), got %s", ErrInvalidDomainInput, fee)
	}
	return nil
}

// firstErr returns the first non-nil error in the order the checks were listed.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
