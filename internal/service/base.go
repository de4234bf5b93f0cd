// Package service prices trades against weighted pool state read from the
// chain.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nulln0ne/weighted-estimator/internal/metrics"
	"github.com/nulln0ne/weighted-estimator/pkg/weighted"
)

// BaseService provides the logger and math bookkeeping shared by services.
type BaseService struct {
	logger *slog.Logger
}

// computed records the outcome of a pool math operation and marks math
// failures with ErrTradeNotPossible.
func (s *BaseService) computed(op string, err error) error {
	metrics.QuoteComputed(op, err)
	if err == nil {
		return nil
	}
	if errors.Is(err, weighted.ErrInvalidDomainInput) ||
		errors.Is(err, weighted.ErrInvariantViolation) ||
		errors.Is(err, weighted.ErrNumericOverflow) ||
		errors.Is(err, weighted.ErrPrecisionLoss) {
		s.logger.Debug("pool math rejected trade", "op", op, "err", err)
		return fmt.Errorf("%w: %w", ErrTradeNotPossible, err)
	}
	return err
}
