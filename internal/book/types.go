package book

import (
	"container/list"
	"errors"
	"fmt"
	"time"
)

// Direction represents order direction (buy/sell)
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func (d Direction) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell
}

var (
	ErrAssetMismatch = errors.New("asset does not belong to this order book")
	ErrInvalidOrder  = errors.New("invalid order")
)

// Order represents an order in the order book.
// ID is assigned once by the engine before submission and never changes.
// Remaining is owned by the book while the order rests.
type Order struct {
	ID          int64
	Asset       string
	Price       int64 // fixed-point, see assetspec
	Amount      int64 // original quantity, immutable after submission
	Direction   Direction
	SubmittedAt time.Time
	Remaining   int64

	element *list.Element // position in its price level queue
}

// Validate validates the order fields set by the caller
func (o *Order) Validate() error {
	if o.Asset == "" {
		return fmt.Errorf("%w: asset required", ErrInvalidOrder)
	}
	if !o.Direction.IsValid() {
		return fmt.Errorf("%w: invalid direction", ErrInvalidOrder)
	}
	if o.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
	}
	if o.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	return nil
}

// Trade records one fill leg against a counterparty order.
// Trades are append-only facts and are never mutated.
type Trade struct {
	OrderID int64 // counterparty order id
	Price   int64 // execution price (always the resting order's price)
	Amount  int64
}

// Result is the order-state snapshot produced by one submission.
// Trades holds only the fills accumulated during that call.
type Result struct {
	ID          int64
	Asset       string
	Price       int64
	Amount      int64
	Direction   Direction
	SubmittedAt time.Time
	Pending     int64
	Trades      []Trade
}

// Event is the interface for notifications emitted while matching.
type Event interface {
	isEvent()
}

// OrderSaved is emitted after every submission with the full snapshot,
// so the archive records (or refreshes) the submitting order's entry.
type OrderSaved struct {
	Order Result
}

func (OrderSaved) isEvent() {}

// CounterpartyUpdated is emitted once per fill so the archive can append
// the trade onto the matched resting order's own entry.
type CounterpartyUpdated struct {
	TriggerID      int64 // the taking order
	CounterpartyID int64 // the matched resting order
	Amount         int64
	Price          int64 // execution price
}

func (CounterpartyUpdated) isEvent() {}

// Publisher delivers matching events to subscribers, synchronously
// within the caller's matching call.
type Publisher interface {
	Publish(ev Event)
}
