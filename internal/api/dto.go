package api

import "time"

// PlaceOrderRequest is the body for POST /v1/orders.
// Price and amount are decimal strings; the adapter converts them to the
// core's fixed-point representation.
type PlaceOrderRequest struct {
	Asset     string `json:"asset" binding:"required"`
	Price     string `json:"price" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

// CreateBookRequest is the body for POST /v1/books.
type CreateBookRequest struct {
	Asset string `json:"asset" binding:"required"`
}

// BookResponse describes one order book.
type BookResponse struct {
	Asset string `json:"asset"`
}

// OrderResponse is the order-state snapshot returned from a submission
// or an archive lookup.
type OrderResponse struct {
	OrderID     int64      `json:"order_id"`
	Asset       string     `json:"asset"`
	Price       string     `json:"price"`
	Amount      string     `json:"amount"`
	Direction   string     `json:"direction"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Pending     string     `json:"pending_amount"`
	Trades      []TradeDTO `json:"trades"`
}

// TradeDTO is one fill leg: the counterparty order and the executed
// price and amount.
type TradeDTO struct {
	OrderID int64  `json:"order_id"`
	Price   string `json:"price"`
	Amount  string `json:"amount"`
}

// LiveOrderResponse is one resting order in a live-book listing.
type LiveOrderResponse struct {
	OrderID     int64     `json:"order_id"`
	Asset       string    `json:"asset"`
	Price       string    `json:"price"`
	Amount      string    `json:"amount"`
	Remaining   string    `json:"remaining_amount"`
	Direction   string    `json:"direction"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
