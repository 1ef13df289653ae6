package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-matching/internal/archive"
	"order-matching/internal/assetspec"
	"order-matching/internal/book"
	"order-matching/internal/engine"
)

// Handler translates HTTP requests into engine calls. It carries no
// matching logic of its own.
type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
}

func NewHandler(eng *engine.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		engine: eng,
		log:    log.Named("api"),
	}
}

// PlaceOrder handles POST /v1/orders
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidInput, Message: err.Error()})
		return
	}

	ord, err := h.orderFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidInput, Message: err.Error()})
		return
	}

	res, err := h.engine.Submit(ord)
	if err != nil {
		status, body := MapErrorToHTTP(err)
		c.JSON(status, body)
		return
	}

	h.log.Info("order placed",
		zap.String("request_id", c.GetString("request_id")),
		zap.Int64("order_id", res.ID),
		zap.String("asset", res.Asset),
		zap.Int("trades", len(res.Trades)))

	c.JSON(http.StatusOK, resultToResponse(res))
}

// GetOrder handles GET /v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidInput, Message: "invalid order id"})
		return
	}

	entry, err := h.engine.FindOrder(id)
	if err != nil {
		status, body := MapErrorToHTTP(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, entryToResponse(entry))
}

// ListLiveOrders handles GET /v1/books/:asset/orders
func (h *Handler) ListLiveOrders(c *gin.Context) {
	asset := c.Param("asset")
	direction := c.Query("direction")

	orders, err := h.engine.FindLiveOrders(asset, direction)
	if err != nil {
		status, body := MapErrorToHTTP(err)
		c.JSON(status, body)
		return
	}

	spec := assetspec.For(asset)
	resp := make([]LiveOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, LiveOrderResponse{
			OrderID:     o.ID,
			Asset:       o.Asset,
			Price:       assetspec.FormatScaledInt(o.Price, spec.PriceScale),
			Amount:      assetspec.FormatScaledInt(o.Amount, spec.AmountScale),
			Remaining:   assetspec.FormatScaledInt(o.Remaining, spec.AmountScale),
			Direction:   string(o.Direction),
			SubmittedAt: o.SubmittedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// CreateBook handles POST /v1/books
func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidInput, Message: err.Error()})
		return
	}

	b, err := h.engine.CreateBook(req.Asset)
	if err != nil {
		status, body := MapErrorToHTTP(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, BookResponse{Asset: b.Asset()})
}

// DeleteBook handles DELETE /v1/books/:asset
func (h *Handler) DeleteBook(c *gin.Context) {
	asset := c.Param("asset")
	if !h.engine.DeleteBook(asset) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    ErrorCodeBookNotFound,
			Message: fmt.Sprintf("order book not found: %s", asset),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) orderFromRequest(req *PlaceOrderRequest) (*book.Order, error) {
	asset := strings.TrimSpace(req.Asset)
	spec := assetspec.For(asset)

	price, err := assetspec.ParseScaledInt(req.Price, spec.PriceScale)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	amount, err := assetspec.ParseScaledInt(req.Amount, spec.AmountScale)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	direction := book.Direction(strings.ToUpper(strings.TrimSpace(req.Direction)))
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid direction: %s", req.Direction)
	}

	return &book.Order{
		Asset:       asset,
		Price:       price,
		Amount:      amount,
		Direction:   direction,
		SubmittedAt: time.Now(),
	}, nil
}

func resultToResponse(res *book.Result) OrderResponse {
	spec := assetspec.For(res.Asset)
	return OrderResponse{
		OrderID:     res.ID,
		Asset:       res.Asset,
		Price:       assetspec.FormatScaledInt(res.Price, spec.PriceScale),
		Amount:      assetspec.FormatScaledInt(res.Amount, spec.AmountScale),
		Direction:   string(res.Direction),
		SubmittedAt: res.SubmittedAt,
		Pending:     assetspec.FormatScaledInt(res.Pending, spec.AmountScale),
		Trades:      tradesToDTO(res.Trades, spec),
	}
}

func entryToResponse(entry *archive.Entry) OrderResponse {
	spec := assetspec.For(entry.Asset)
	return OrderResponse{
		OrderID:     entry.ID,
		Asset:       entry.Asset,
		Price:       assetspec.FormatScaledInt(entry.Price, spec.PriceScale),
		Amount:      assetspec.FormatScaledInt(entry.Amount, spec.AmountScale),
		Direction:   string(entry.Direction),
		SubmittedAt: entry.SubmittedAt,
		Pending:     assetspec.FormatScaledInt(entry.Pending, spec.AmountScale),
		Trades:      tradesToDTO(entry.Trades, spec),
	}
}

func tradesToDTO(trades []book.Trade, spec assetspec.Spec) []TradeDTO {
	dtos := make([]TradeDTO, 0, len(trades))
	for _, t := range trades {
		dtos = append(dtos, TradeDTO{
			OrderID: t.OrderID,
			Price:   assetspec.FormatScaledInt(t.Price, spec.PriceScale),
			Amount:  assetspec.FormatScaledInt(t.Amount, spec.AmountScale),
		})
	}
	return dtos
}
