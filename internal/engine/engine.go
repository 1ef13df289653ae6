// Package engine owns the asset to order book mapping and the global
// order id allocator, and routes submissions to the right book.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"order-matching/internal/archive"
	"order-matching/internal/book"
)

var (
	ErrBookNotFound     = errors.New("order book not found")
	ErrInvalidDirection = errors.New("invalid order direction")
	ErrInvalidAsset     = errors.New("invalid asset")
)

// Engine is process-scoped state: one order book per asset, a strictly
// increasing id counter shared across all assets, and the archive that
// consumes match outcomes. Books for different assets match in parallel.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*book.OrderBook

	counter atomic.Int64

	pub book.Publisher
	arc *archive.Archive
	log *zap.Logger
}

// New creates an engine. The publisher's subscriber set (normally the
// archive) must be registered before the first submission.
func New(pub book.Publisher, arc *archive.Archive, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		books: make(map[string]*book.OrderBook),
		pub:   pub,
		arc:   arc,
		log:   log.Named("engine"),
	}
}

// CreateBook creates the order book for an asset. Idempotent: an existing
// book is returned unchanged.
func (e *Engine) CreateBook(asset string) (*book.OrderBook, error) {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return nil, fmt.Errorf("%w: asset required", ErrInvalidAsset)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.books[asset]; ok {
		return b, nil
	}
	b := book.New(asset, e.pub, e.log)
	e.books[asset] = b
	e.log.Info("order book created", zap.String("asset", asset))
	return b, nil
}

// GetBook returns the order book for an asset.
func (e *Engine) GetBook(asset string) (*book.OrderBook, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, asset)
	}
	return b, nil
}

// DeleteBook removes the order book for an asset and reports whether one
// existed. Archived orders for the asset remain readable.
func (e *Engine) DeleteBook(asset string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.books[asset]
	if ok {
		delete(e.books, asset)
		e.log.Info("order book deleted", zap.String("asset", asset))
	}
	return ok
}

// NextID returns a strictly increasing order id, unique for the engine's
// lifetime and safe under concurrent callers.
func (e *Engine) NextID() int64 {
	return e.counter.Add(1)
}

// Submit assigns the order its id, resolves the book for its asset and
// runs the match. A validation failure leaves all state untouched.
func (e *Engine) Submit(o *book.Order) (*book.Result, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: order is nil", book.ErrInvalidOrder)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	b, err := e.GetBook(o.Asset)
	if err != nil {
		return nil, err
	}

	o.ID = e.NextID()
	return b.Submit(o)
}

// FindOrder returns the archived state of an order.
func (e *Engine) FindOrder(id int64) (*archive.Entry, error) {
	return e.arc.Get(id)
}

// FindLiveOrders returns the resting orders of one book in match
// priority. An empty direction returns both sides, bids first; anything
// other than BUY or SELL fails with ErrInvalidDirection.
func (e *Engine) FindLiveOrders(asset, direction string) ([]book.Order, error) {
	b, err := e.GetBook(asset)
	if err != nil {
		return nil, err
	}

	switch book.Direction(strings.ToUpper(strings.TrimSpace(direction))) {
	case book.DirectionBuy:
		return b.Resting(book.DirectionBuy), nil
	case book.DirectionSell:
		return b.Resting(book.DirectionSell), nil
	case "":
		return append(b.Resting(book.DirectionBuy), b.Resting(book.DirectionSell)...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}
}
