// Package archive keeps the durable-in-process record of every order ever
// submitted, keyed by id. Entries stay reachable after the order leaves
// the resting queues; trade histories are append-only.
package archive

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"order-matching/internal/book"
)

var ErrNotFound = errors.New("order not found")

// Entry is the archived state of one order: its snapshot plus the ordered
// trades recorded against it and the remaining unfilled quantity as last
// observed.
type Entry struct {
	ID          int64
	Asset       string
	Price       int64
	Amount      int64
	Direction   book.Direction
	SubmittedAt time.Time
	Pending     int64
	Trades      []book.Trade
}

type record struct {
	mu sync.Mutex
	e  Entry
}

// Archive is a concurrent id-keyed store. Operations on different ids do
// not block each other; updates to the same id are serialized per entry.
type Archive struct {
	mu      sync.RWMutex
	records map[int64]*record
	log     *zap.Logger
}

func New(log *zap.Logger) *Archive {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archive{
		records: make(map[int64]*record),
		log:     log.Named("archive"),
	}
}

// Upsert inserts or replaces the entry for the snapshot's id.
func (a *Archive) Upsert(res book.Result) {
	rec := a.recordFor(res.ID)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.e = Entry{
		ID:          res.ID,
		Asset:       res.Asset,
		Price:       res.Price,
		Amount:      res.Amount,
		Direction:   res.Direction,
		SubmittedAt: res.SubmittedAt,
		Pending:     res.Pending,
		Trades:      append([]book.Trade(nil), res.Trades...),
	}
}

// ApplyCounterpartyUpdate appends a trade onto the counterparty order's
// entry and decrements its pending amount. The decrement accumulates
// across calls: one resting order can be hit by many taking orders.
// Unknown counterparty ids are ignored.
func (a *Archive) ApplyCounterpartyUpdate(triggerID, counterpartyID, amount, price int64) {
	a.mu.RLock()
	rec, ok := a.records[counterpartyID]
	a.mu.RUnlock()
	if !ok {
		a.log.Warn("counterparty update for unknown order",
			zap.Int64("trigger_id", triggerID),
			zap.Int64("counterparty_id", counterpartyID))
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.e.Trades = append(rec.e.Trades, book.Trade{
		OrderID: triggerID,
		Price:   price,
		Amount:  amount,
	})
	rec.e.Pending -= amount
	if rec.e.Pending < 0 {
		a.log.Error("pending amount underflow",
			zap.Int64("order_id", counterpartyID),
			zap.Int64("pending", rec.e.Pending))
		rec.e.Pending = 0
	}
}

// Get returns a copy of the entry for id, or ErrNotFound.
func (a *Archive) Get(id int64) (*Entry, error) {
	a.mu.RLock()
	rec, ok := a.records[id]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	e := rec.e
	e.Trades = append([]book.Trade(nil), rec.e.Trades...)
	return &e, nil
}

// HandleOrderEvent makes the archive an event.Subscriber: submission
// snapshots upsert their own entry, fills update the counterparty's.
func (a *Archive) HandleOrderEvent(ev book.Event) {
	switch e := ev.(type) {
	case book.OrderSaved:
		a.Upsert(e.Order)
	case book.CounterpartyUpdated:
		a.ApplyCounterpartyUpdate(e.TriggerID, e.CounterpartyID, e.Amount, e.Price)
	default:
		a.log.Debug("ignoring unknown event")
	}
}

func (a *Archive) recordFor(id int64) *record {
	a.mu.RLock()
	rec, ok := a.records[id]
	a.mu.RUnlock()
	if ok {
		return rec
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok = a.records[id]; ok {
		return rec
	}
	rec = &record{}
	a.records[id] = rec
	return rec
}
