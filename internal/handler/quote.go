package handler

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/nulln0ne/weighted-estimator/internal/service"
)

type QuoteHandler struct {
	BaseHandler
	service *service.QuoteService
}

// NewQuoteHandler returns a handler bounding every service call by timeout.
func NewQuoteHandler(logger *slog.Logger, svc *service.QuoteService, timeout time.Duration) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: BaseHandler{
			logger:  logger,
			timeout: timeout,
		},
		service: svc,
	}
}

type QuoteRequest struct {
	Pool      string `query:"pool" json:"pool"`
	Src       string `query:"src" json:"src"`
	Dst       string `query:"dst" json:"dst"`
	SrcAmount string `query:"src_amount" json:"src_amount"`
	DstAmount string `query:"dst_amount" json:"dst_amount"`
}

// Register mounts the pricing routes on router.
func (h *QuoteHandler) Register(router fiber.Router) {
	router.Get("/estimate", h.HandleEstimate())
	router.Get("/estimate/in", h.HandleEstimateIn())
	router.Get("/spot-price", h.HandleSpotPrice())
	router.Get("/join", h.HandleJoin())
	router.Get("/quote", h.HandleQuote())
}

// HandleEstimate responds with the amount of dst received for src_amount of
// src, in base units.
func (h *QuoteHandler) HandleEstimate() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c, true)
		if err != nil {
			return err
		}
		amountIn, err := h.parseAmount(req.SrcAmount)
		if err != nil {
			return NewInvalidAmount("src_amount", err)
		}

		ctx, cancel := h.context()
		defer cancel()
		amountOut, err := h.service.EstimateOut(ctx, common.HexToAddress(req.Pool), common.HexToAddress(req.Src), common.HexToAddress(req.Dst), amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("estimate computed", "pool", req.Pool, "src", req.Src, "dst", req.Dst, "in", amountIn.String(), "out", amountOut.String())
		return c.SendString(amountOut.String())
	}
}

// HandleEstimateIn responds with the amount of src required to receive
// dst_amount of dst, in base units.
func (h *QuoteHandler) HandleEstimateIn() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c, true)
		if err != nil {
			return err
		}
		amountOut, err := h.parseAmount(req.DstAmount)
		if err != nil {
			return NewInvalidAmount("dst_amount", err)
		}

		ctx, cancel := h.context()
		defer cancel()
		amountIn, err := h.service.EstimateIn(ctx, common.HexToAddress(req.Pool), common.HexToAddress(req.Src), common.HexToAddress(req.Dst), amountOut)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("reverse estimate computed", "pool", req.Pool, "src", req.Src, "dst", req.Dst, "out", amountOut.String(), "in", amountIn.String())
		return c.SendString(amountIn.String())
	}
}

// HandleSpotPrice responds with the fee-inclusive spot price of src in dst.
func (h *QuoteHandler) HandleSpotPrice() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c, true)
		if err != nil {
			return err
		}

		ctx, cancel := h.context()
		defer cancel()
		price, err := h.service.SpotPrice(ctx, common.HexToAddress(req.Pool), common.HexToAddress(req.Src), common.HexToAddress(req.Dst))
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.SendString(price.String())
	}
}

// HandleJoin responds with the pool shares minted for a single-asset deposit
// of src_amount of src.
func (h *QuoteHandler) HandleJoin() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c, false)
		if err != nil {
			return err
		}
		amountIn, err := h.parseAmount(req.SrcAmount)
		if err != nil {
			return NewInvalidAmount("src_amount", err)
		}

		ctx, cancel := h.context()
		defer cancel()
		shares, err := h.service.EstimateJoin(ctx, common.HexToAddress(req.Pool), common.HexToAddress(req.Src), amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("join computed", "pool", req.Pool, "src", req.Src, "in", amountIn.String(), "shares", shares.String())
		return c.SendString(shares.String())
	}
}

// HandleQuote responds with a JSON quote including price impact.
func (h *QuoteHandler) HandleQuote() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c, true)
		if err != nil {
			return err
		}
		amountIn, err := h.parseAmount(req.SrcAmount)
		if err != nil {
			return NewInvalidAmount("src_amount", err)
		}

		ctx, cancel := h.context()
		defer cancel()
		q, err := h.service.Quote(ctx, common.HexToAddress(req.Pool), common.HexToAddress(req.Src), common.HexToAddress(req.Dst), amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(q)
	}
}

func (h *QuoteHandler) parseAndValidateRequest(c fiber.Ctx, withDst bool) (*QuoteRequest, error) {
	var req QuoteRequest

	if err := c.Bind().Query(&req); err != nil {
		h.logger.Debug("failed to bind query parameters", "err", err)
		return nil, ErrInvalidQueryParameters
	}

	if err := h.validateAddresses(&req, withDst); err != nil {
		return nil, err
	}

	return &req, nil
}

func (h *QuoteHandler) validateAddresses(req *QuoteRequest, withDst bool) error {
	addresses := []struct{ field, addr string }{
		{"pool", req.Pool},
		{"src", req.Src},
	}
	if withDst {
		addresses = append(addresses, struct{ field, addr string }{"dst", req.Dst})
	}

	for _, a := range addresses {
		if a.addr == "" {
			return NewAddressRequired(a.field)
		}
		if !common.IsHexAddress(a.addr) {
			return NewInvalidAddress(a.field)
		}
	}

	if withDst && strings.EqualFold(req.Src, req.Dst) {
		return ErrSameAddresses
	}

	return nil
}

func (h *QuoteHandler) handleServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrSameToken):
		return ErrSameTokenBadRequest
	case errors.Is(err, service.ErrPairMismatch):
		return ErrPairMismatchBadRequest
	case errors.Is(err, service.ErrEmptyReserves):
		return ErrEmptyReservesBadRequest
	case errors.Is(err, service.ErrTradeNotPossible):
		h.logger.Debug("trade rejected", "err", err)
		return ErrTradeNotPossibleBadRequest
	default:
		h.logger.Error("service estimate failed", "err", err)
		return ErrEstimationFailedInternal
	}
}
