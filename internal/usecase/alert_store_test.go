package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeQuotes is an in-test QuoteSource with per-symbol quotes or errors and
// an atomic call counter per symbol.
type fakeQuotes struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
	errs   map[string]error
	calls  map[string]*atomic.Int32
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		quotes: make(map[string]domain.Quote),
		errs:   make(map[string]error),
		calls:  make(map[string]*atomic.Int32),
	}
}

func (f *fakeQuotes) setQuote(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[symbol] = domain.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		UpdatedAt: time.Now(),
	}
	delete(f.errs, symbol)
}

func (f *fakeQuotes) setError(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[symbol] = err
}

func (f *fakeQuotes) counter(symbol string) *atomic.Int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls[symbol] == nil {
		f.calls[symbol] = &atomic.Int32{}
	}
	return f.calls[symbol]
}

func (f *fakeQuotes) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	f.counter(symbol).Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if quote, ok := f.quotes[symbol]; ok {
		return &quote, nil
	}
	return nil, domain.ErrSymbolNotFound
}

func newTestStore(quotes QuoteSource) *AlertStore {
	return NewAlertStore(cache.New(zap.NewNop()), quotes, zap.NewNop())
}

func TestCreateValidation(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 50000)
	store := newTestStore(quotes)
	ctx := context.Background()

	if _, err := store.Create(ctx, 1, "BTC", decimal.Zero, "above"); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("zero price: err = %v, want ErrInvalidPrice", err)
	}
	if _, err := store.Create(ctx, 1, "BTC", decimal.NewFromInt(-5), "above"); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative price: err = %v, want ErrInvalidPrice", err)
	}
	if _, err := store.Create(ctx, 1, "BTC", decimal.NewFromInt(50000), "sideways"); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("bad condition: err = %v, want ErrInvalidCondition", err)
	}
	if _, err := store.Create(ctx, 1, "NOPE", decimal.NewFromInt(1), "above"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("unknown symbol: err = %v, want ErrSymbolNotFound", err)
	}

	alert, err := store.Create(ctx, 1, "btc", decimal.NewFromInt(50000), "Above")
	if err != nil {
		t.Fatalf("valid create failed: %v", err)
	}
	if alert.Symbol != "BTC" || alert.Condition != domain.ConditionAbove {
		t.Errorf("alert = %+v, want uppercased symbol and ABOVE condition", alert)
	}
	if alert.LastQuote == nil {
		t.Error("creation should attach the validating quote")
	}
}

func TestDuplicateRejection(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	store := newTestStore(quotes)
	ctx := context.Background()
	target := decimal.NewFromInt(50000)

	if _, err := store.Create(ctx, 7, "BTC", target, "above"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := store.Create(ctx, 7, "btc", target, "ABOVE"); !errors.Is(err, ErrDuplicateAlert) {
		t.Errorf("exact duplicate: err = %v, want ErrDuplicateAlert", err)
	}
	if _, err := store.Create(ctx, 7, "BTC", target, "below"); err != nil {
		t.Errorf("different condition should not be a duplicate: %v", err)
	}
	if _, err := store.Create(ctx, 8, "BTC", target, "above"); err != nil {
		t.Errorf("same alert for another user should be allowed: %v", err)
	}
}

func TestConcurrentCreateRejectsDuplicates(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	store := newTestStore(quotes)
	ctx := context.Background()
	target := decimal.NewFromInt(50000)

	const attempts = 32
	start := make(chan struct{})
	var created, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.Create(ctx, 7, "BTC", target, "above")
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrDuplicateAlert):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("created = %d, want exactly 1 winner", created.Load())
	}
	if duplicates.Load() != attempts-1 {
		t.Errorf("duplicates = %d, want %d", duplicates.Load(), attempts-1)
	}
	if alerts, _ := store.ListForUser(ctx, 7); len(alerts) != 1 {
		t.Errorf("stored alerts = %d, want 1", len(alerts))
	}
}

func TestListForUserNewestFirst(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	quotes.setQuote("ETH", 3000)
	store := newTestStore(quotes)
	ctx := context.Background()

	first, _ := store.Create(ctx, 1, "BTC", decimal.NewFromInt(50000), "above")
	time.Sleep(2 * time.Millisecond)
	second, _ := store.Create(ctx, 1, "ETH", decimal.NewFromInt(4000), "above")

	alerts, err := store.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("len = %d, want 2", len(alerts))
	}
	if alerts[0].ID != second.ID || alerts[1].ID != first.ID {
		t.Error("alerts should be ordered newest first")
	}
}

func TestDeleteOwnership(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	store := newTestStore(quotes)
	ctx := context.Background()

	alert, _ := store.Create(ctx, 1, "BTC", decimal.NewFromInt(50000), "above")

	// A foreign alert id reads as not found, not as forbidden.
	if err := store.Delete(ctx, 2, alert.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("foreign delete: err = %v, want ErrAlertNotFound", err)
	}
	if alerts, _ := store.ListForUser(ctx, 1); len(alerts) != 1 {
		t.Fatal("foreign delete must not remove the alert")
	}

	if err := store.Delete(ctx, 1, alert.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := store.Delete(ctx, 1, alert.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("second delete: err = %v, want ErrAlertNotFound", err)
	}
}

func TestIndexConsistency(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	quotes.setQuote("ETH", 3000)
	store := newTestStore(quotes)
	ctx := context.Background()

	checkConsistent := func(t *testing.T) {
		t.Helper()
		active, _ := store.ListActive(ctx)
		byUser := make(map[int64]int)
		for _, alert := range active {
			byUser[alert.UserID]++
		}
		for userID, want := range byUser {
			listed, _ := store.ListForUser(ctx, userID)
			if len(listed) != want {
				t.Fatalf("user %d: index lists %d alerts, active scan found %d", userID, len(listed), want)
			}
		}
	}

	a1, _ := store.Create(ctx, 1, "BTC", decimal.NewFromInt(50000), "above")
	checkConsistent(t)
	a2, _ := store.Create(ctx, 1, "ETH", decimal.NewFromInt(4000), "below")
	checkConsistent(t)
	_, _ = store.Create(ctx, 2, "BTC", decimal.NewFromInt(45000), "below")
	checkConsistent(t)

	_ = store.Delete(ctx, 1, a1.ID)
	checkConsistent(t)
	_ = store.Delete(ctx, 1, a2.ID)
	checkConsistent(t)

	if alerts, _ := store.ListForUser(ctx, 1); len(alerts) != 0 {
		t.Errorf("user 1 should have no alerts left, got %d", len(alerts))
	}
	if active, _ := store.ListActive(ctx); len(active) != 1 {
		t.Errorf("one alert should remain active overall, got %d", len(active))
	}
}

func TestActiveSymbolsDistinct(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.setQuote("BTC", 49000)
	quotes.setQuote("ETH", 3000)
	store := newTestStore(quotes)
	ctx := context.Background()

	_, _ = store.Create(ctx, 1, "BTC", decimal.NewFromInt(50000), "above")
	_, _ = store.Create(ctx, 2, "BTC", decimal.NewFromInt(40000), "below")
	_, _ = store.Create(ctx, 1, "ETH", decimal.NewFromInt(4000), "above")

	symbols := store.ActiveSymbols()
	if len(symbols) != 2 {
		t.Errorf("ActiveSymbols = %v, want 2 distinct symbols", symbols)
	}
}
