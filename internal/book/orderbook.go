package book

import (
	"container/list"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// priceLevel holds all resting orders at one price, in arrival order.
// Partially filled orders keep their queue position, so time priority
// survives partial fills.
type priceLevel struct {
	price  int64
	queue  *list.List
	volume int64 // total remaining quantity at this price
}

func newPriceLevel(price int64) *priceLevel {
	return &priceLevel{
		price: price,
		queue: list.New(),
	}
}

func (pl *priceLevel) add(o *Order) {
	o.element = pl.queue.PushBack(o)
	pl.volume += o.Remaining
}

func (pl *priceLevel) remove(o *Order) {
	if o.element != nil {
		pl.queue.Remove(o.element)
		o.element = nil
	}
}

func (pl *priceLevel) front() *Order {
	e := pl.queue.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Order)
}

func (pl *priceLevel) isEmpty() bool {
	return pl.queue.Len() == 0
}

// OrderBook matches incoming orders for one asset against the opposite
// side's resting orders under price-then-time priority.
//
// All state is guarded by a single mutex held for the whole match, so
// taking the best resting order is atomic with respect to concurrent
// submitters. Books for different assets are independent.
type OrderBook struct {
	mu sync.Mutex

	asset     string
	bidLevels map[int64]*priceLevel
	askLevels map[int64]*priceLevel

	pub Publisher
	log *zap.Logger
}

// New creates an order book for one asset. Matching events are delivered
// through pub; the subscriber set must be registered before first use.
func New(asset string, pub Publisher, log *zap.Logger) *OrderBook {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderBook{
		asset:     asset,
		bidLevels: make(map[int64]*priceLevel),
		askLevels: make(map[int64]*priceLevel),
		pub:       pub,
		log:       log.Named("book").With(zap.String("asset", asset)),
	}
}

// Asset returns the asset this book trades.
func (b *OrderBook) Asset() string {
	return b.asset
}

// Submit matches the incoming order against the opposite side, resting
// any unmatched remainder, and returns the resulting snapshot.
// A rejected order leaves the book untouched.
func (b *OrderBook) Submit(o *Order) (*Result, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: order is nil", ErrInvalidOrder)
	}
	if o.Asset != b.asset {
		return nil, fmt.Errorf("%w: order asset %q, book asset %q", ErrAssetMismatch, o.Asset, b.asset)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o.Remaining = o.Amount

	var trades []Trade
	if o.Direction == DirectionBuy {
		trades = b.matchBuy(o)
	} else {
		trades = b.matchSell(o)
	}

	if o.Remaining > 0 {
		b.rest(o)
	}

	res := &Result{
		ID:          o.ID,
		Asset:       o.Asset,
		Price:       o.Price,
		Amount:      o.Amount,
		Direction:   o.Direction,
		SubmittedAt: o.SubmittedAt,
		Pending:     o.Remaining,
		Trades:      trades,
	}
	b.publish(OrderSaved{Order: *res})

	b.log.Debug("order processed",
		zap.Int64("order_id", o.ID),
		zap.String("direction", string(o.Direction)),
		zap.Int("trades", len(trades)),
		zap.Int64("pending", o.Remaining))

	return res, nil
}

// matchBuy fills an incoming buy against asks while the best ask price
// does not exceed the bid price.
func (b *OrderBook) matchBuy(buy *Order) []Trade {
	var trades []Trade
	for buy.Remaining > 0 {
		bestAsk, ok := b.bestAsk()
		if !ok || bestAsk > buy.Price {
			break
		}
		level := b.askLevels[bestAsk]
		sell := level.front()
		if sell == nil {
			delete(b.askLevels, bestAsk)
			continue
		}
		trades = append(trades, b.fill(buy, sell, level))
		if sell.Remaining == 0 {
			level.remove(sell)
			if level.isEmpty() {
				delete(b.askLevels, bestAsk)
			}
		}
	}
	return trades
}

// matchSell fills an incoming sell against bids while the best bid price
// is not below the ask price.
func (b *OrderBook) matchSell(sell *Order) []Trade {
	var trades []Trade
	for sell.Remaining > 0 {
		bestBid, ok := b.bestBid()
		if !ok || bestBid < sell.Price {
			break
		}
		level := b.bidLevels[bestBid]
		buy := level.front()
		if buy == nil {
			delete(b.bidLevels, bestBid)
			continue
		}
		trades = append(trades, b.fill(sell, buy, level))
		if buy.Remaining == 0 {
			level.remove(buy)
			if level.isEmpty() {
				delete(b.bidLevels, bestBid)
			}
		}
	}
	return trades
}

// fill executes one fill leg between the taker and the best resting order.
// Execution price is the resting order's price.
func (b *OrderBook) fill(taker, resting *Order, level *priceLevel) Trade {
	amount := resting.Remaining
	if taker.Remaining < amount {
		amount = taker.Remaining
	}

	taker.Remaining -= amount
	resting.Remaining -= amount
	level.volume -= amount

	trade := Trade{
		OrderID: resting.ID,
		Price:   resting.Price,
		Amount:  amount,
	}
	b.publish(CounterpartyUpdated{
		TriggerID:      taker.ID,
		CounterpartyID: resting.ID,
		Amount:         amount,
		Price:          resting.Price,
	})
	return trade
}

func (b *OrderBook) rest(o *Order) {
	levels := b.askLevels
	if o.Direction == DirectionBuy {
		levels = b.bidLevels
	}
	level, ok := levels[o.Price]
	if !ok {
		level = newPriceLevel(o.Price)
		levels[o.Price] = level
	}
	level.add(o)
}

// bestBid returns the highest bid price, if any bids rest.
func (b *OrderBook) bestBid() (int64, bool) {
	var best int64
	found := false
	for price := range b.bidLevels {
		if !found || price > best {
			best = price
			found = true
		}
	}
	return best, found
}

// bestAsk returns the lowest ask price, if any asks rest.
func (b *OrderBook) bestAsk() (int64, bool) {
	var best int64
	found := false
	for price := range b.askLevels {
		if !found || price < best {
			best = price
			found = true
		}
	}
	return best, found
}

// Resting returns copies of one side's resting orders in match priority:
// asks ascending by price, bids descending, arrival order within a price.
func (b *OrderBook) Resting(d Direction) []Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restingLocked(d)
}

func (b *OrderBook) restingLocked(d Direction) []Order {
	levels := b.askLevels
	if d == DirectionBuy {
		levels = b.bidLevels
	}

	prices := make([]int64, 0, len(levels))
	for price := range levels {
		prices = append(prices, price)
	}
	sort.Slice(prices, func(i, j int) bool {
		if d == DirectionBuy {
			return prices[i] > prices[j]
		}
		return prices[i] < prices[j]
	})

	var orders []Order
	for _, price := range prices {
		for e := levels[price].queue.Front(); e != nil; e = e.Next() {
			o := *e.Value.(*Order)
			o.element = nil
			orders = append(orders, o)
		}
	}
	return orders
}

func (b *OrderBook) publish(ev Event) {
	if b.pub != nil {
		b.pub.Publish(ev)
	}
}
