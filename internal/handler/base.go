// Package handler serves weighted pool pricing over HTTP.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"time"
)

// BaseHandler provides the logger and request deadline shared by handlers.
type BaseHandler struct {
	logger  *slog.Logger
	timeout time.Duration
}

// context bounds one service call by the handler timeout.
func (h *BaseHandler) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

// parseAmount parses a positive base-10 integer amount in base units.
func (h *BaseHandler) parseAmount(amountStr string) (*big.Int, error) {
	if amountStr == "" {
		return nil, ErrAmountRequired
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}

	if amount.Sign() <= 0 {
		return nil, ErrAmountNonPositive
	}

	return amount, nil
}
