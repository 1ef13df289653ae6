package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"order-matching/internal/archive"
	"order-matching/internal/book"
	"order-matching/internal/event"
)

func newTestEngine(t *testing.T, assets ...string) (*Engine, *archive.Archive) {
	t.Helper()
	bus := event.NewBus(nil)
	arc := archive.New(nil)
	bus.Subscribe(arc)
	eng := New(bus, arc, nil)
	for _, asset := range assets {
		if _, err := eng.CreateBook(asset); err != nil {
			t.Fatalf("CreateBook(%s) failed: %v", asset, err)
		}
	}
	return eng, arc
}

func testOrder(asset string, dir book.Direction, price, amount int64) *book.Order {
	return &book.Order{
		Asset:       asset,
		Price:       price,
		Amount:      amount,
		Direction:   dir,
		SubmittedAt: time.Now(),
	}
}

func mustSubmit(t *testing.T, eng *Engine, o *book.Order) *book.Result {
	t.Helper()
	res, err := eng.Submit(o)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return res
}

func TestCreateBook_Idempotent(t *testing.T) {
	eng, _ := newTestEngine(t)

	b1, err := eng.CreateBook("BTC")
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	b2, err := eng.CreateBook("BTC")
	if err != nil {
		t.Fatalf("second CreateBook failed: %v", err)
	}
	if b1 != b2 {
		t.Errorf("expected the same book instance")
	}
}

func TestCreateBook_BlankAsset(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.CreateBook("  "); !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("expected ErrInvalidAsset, got %v", err)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.GetBook("DOGE"); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	eng, _ := newTestEngine(t, "BTC")

	if !eng.DeleteBook("BTC") {
		t.Errorf("expected delete of existing book to report true")
	}
	if eng.DeleteBook("BTC") {
		t.Errorf("expected second delete to report false")
	}
	if _, err := eng.GetBook("BTC"); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected book gone, got %v", err)
	}
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	eng, _ := newTestEngine(t)

	const workers = 20
	const perWorker = 200

	var wg sync.WaitGroup
	ids := make(chan int64, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- eng.NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers*perWorker)
	for id := range ids {
		if id <= 0 {
			t.Errorf("non-positive id %d", id)
		}
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
}

func TestSubmit_AssignsIDAndArchives(t *testing.T) {
	eng, arc := newTestEngine(t, "BTC")

	res := mustSubmit(t, eng, testOrder("BTC", book.DirectionSell, 1005, 20))
	if res.ID <= 0 {
		t.Fatalf("expected positive assigned id, got %d", res.ID)
	}

	entry, err := arc.Get(res.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Pending != res.Pending {
		t.Errorf("archive pending %d != response pending %d", entry.Pending, res.Pending)
	}
	if len(entry.Trades) != len(res.Trades) {
		t.Errorf("archive trades %d != response trades %d", len(entry.Trades), len(res.Trades))
	}
}

func TestSubmit_UnknownAsset(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.Submit(testOrder("DOGE", book.DirectionBuy, 1000, 10)); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestSubmit_InvalidOrder(t *testing.T) {
	eng, _ := newTestEngine(t, "BTC")
	if _, err := eng.Submit(testOrder("BTC", book.DirectionBuy, 1000, 0)); !errors.Is(err, book.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
	if _, err := eng.Submit(nil); !errors.Is(err, book.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder for nil order, got %v", err)
	}
}

func TestSubmit_MatchUpdatesBothArchiveEntries(t *testing.T) {
	eng, arc := newTestEngine(t, "BTC")

	resting := mustSubmit(t, eng, testOrder("BTC", book.DirectionSell, 1005, 30))
	taker := mustSubmit(t, eng, testOrder("BTC", book.DirectionBuy, 1005, 10))

	takerEntry, err := arc.Get(taker.ID)
	if err != nil {
		t.Fatalf("Get taker failed: %v", err)
	}
	if takerEntry.Pending != 0 || len(takerEntry.Trades) != 1 {
		t.Errorf("unexpected taker entry: %+v", takerEntry)
	}
	if takerEntry.Trades[0].OrderID != resting.ID {
		t.Errorf("taker trade should reference resting order %d, got %d",
			resting.ID, takerEntry.Trades[0].OrderID)
	}

	restingEntry, err := arc.Get(resting.ID)
	if err != nil {
		t.Fatalf("Get resting failed: %v", err)
	}
	if restingEntry.Pending != 20 {
		t.Errorf("expected resting pending 20, got %d", restingEntry.Pending)
	}
	if len(restingEntry.Trades) != 1 || restingEntry.Trades[0].OrderID != taker.ID {
		t.Errorf("resting trade should reference taker %d, got %+v", taker.ID, restingEntry.Trades)
	}
}

func TestSubmit_CumulativeCounterpartyUpdates(t *testing.T) {
	eng, arc := newTestEngine(t, "BTC")

	resting := mustSubmit(t, eng, testOrder("BTC", book.DirectionSell, 1005, 100))
	for i := 0; i < 3; i++ {
		mustSubmit(t, eng, testOrder("BTC", book.DirectionBuy, 1005, 20))
	}

	entry, err := arc.Get(resting.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Pending != 40 {
		t.Errorf("expected pending 40 after three 20-lot fills, got %d", entry.Pending)
	}
	if len(entry.Trades) != 3 {
		t.Errorf("expected 3 trades, got %d", len(entry.Trades))
	}
}

func TestFindOrder_NotFound(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.FindOrder(42); !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindLiveOrders(t *testing.T) {
	eng, _ := newTestEngine(t, "BTC")

	mustSubmit(t, eng, testOrder("BTC", book.DirectionSell, 1010, 10))
	mustSubmit(t, eng, testOrder("BTC", book.DirectionBuy, 1000, 5))

	sells, err := eng.FindLiveOrders("BTC", "sell")
	if err != nil {
		t.Fatalf("FindLiveOrders(sell) failed: %v", err)
	}
	if len(sells) != 1 || sells[0].Direction != book.DirectionSell {
		t.Errorf("expected one sell, got %+v", sells)
	}

	buys, err := eng.FindLiveOrders("BTC", "BUY")
	if err != nil {
		t.Fatalf("FindLiveOrders(BUY) failed: %v", err)
	}
	if len(buys) != 1 || buys[0].Direction != book.DirectionBuy {
		t.Errorf("expected one buy, got %+v", buys)
	}

	all, err := eng.FindLiveOrders("BTC", "")
	if err != nil {
		t.Fatalf("FindLiveOrders(all) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected union of 2 orders, got %d", len(all))
	}
	if all[0].Direction != book.DirectionBuy {
		t.Errorf("expected bids first in the union")
	}

	if _, err := eng.FindLiveOrders("BTC", "sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
	if _, err := eng.FindLiveOrders("DOGE", ""); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestSubmit_ParallelAssets(t *testing.T) {
	const books = 4
	const ordersPerBook = 50

	assets := make([]string, books)
	for i := range assets {
		assets[i] = fmt.Sprintf("AST%d", i)
	}
	eng, arc := newTestEngine(t, assets...)

	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(2)
		go func(asset string) {
			defer wg.Done()
			for i := 0; i < ordersPerBook; i++ {
				if _, err := eng.Submit(testOrder(asset, book.DirectionSell, 1000+int64(i%5), 10)); err != nil {
					t.Errorf("sell submit failed for %s: %v", asset, err)
				}
			}
		}(asset)
		go func(asset string) {
			defer wg.Done()
			for i := 0; i < ordersPerBook; i++ {
				if _, err := eng.Submit(testOrder(asset, book.DirectionBuy, 1000+int64(i%5), 10)); err != nil {
					t.Errorf("buy submit failed for %s: %v", asset, err)
				}
			}
		}(asset)
	}
	wg.Wait()

	// Every submission is archived, all ids unique, invariants hold.
	total := books * ordersPerBook * 2
	seen := 0
	for id := int64(1); id <= int64(total); id++ {
		entry, err := arc.Get(id)
		if err != nil {
			t.Fatalf("id %d missing from archive: %v", id, err)
		}
		if entry.Pending < 0 || entry.Pending > entry.Amount {
			t.Errorf("order %d pending out of bounds: %d of %d", id, entry.Pending, entry.Amount)
		}
		seen++
	}
	if seen != total {
		t.Errorf("expected %d archived orders, got %d", total, seen)
	}

	for _, asset := range assets {
		live, err := eng.FindLiveOrders(asset, "")
		if err != nil {
			t.Fatalf("FindLiveOrders(%s) failed: %v", asset, err)
		}
		for _, o := range live {
			if o.Asset != asset {
				t.Errorf("order %d leaked across books: %s in %s", o.ID, o.Asset, asset)
			}
			if o.Remaining <= 0 || o.Remaining > o.Amount {
				t.Errorf("live order %d remaining out of bounds: %d of %d", o.ID, o.Remaining, o.Amount)
			}
		}
	}
}
