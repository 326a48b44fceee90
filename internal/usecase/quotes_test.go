package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type countingProvider struct {
	calls atomic.Int32
	quote domain.Quote
}

func (p *countingProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	p.calls.Add(1)
	quote := p.quote
	return &quote, nil
}

func TestQuoteServiceReadThrough(t *testing.T) {
	provider := &countingProvider{quote: domain.Quote{Symbol: "BTC", Price: decimal.NewFromInt(60000)}}
	service := NewQuoteService(cache.New(zap.NewNop()), provider, 50*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		quote, err := service.Get(ctx, "btc")
		if err != nil {
			t.Fatalf("Get #%d failed: %v", i, err)
		}
		if quote.Price.String() != "60000" {
			t.Fatalf("price = %s, want 60000", quote.Price)
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (reads within TTL must hit the cache)", got)
	}

	time.Sleep(70 * time.Millisecond)
	if _, err := service.Get(ctx, "BTC"); err != nil {
		t.Fatalf("Get after expiry failed: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider calls = %d, want 2 after TTL expiry", got)
	}
}

func TestQuoteServicePut(t *testing.T) {
	provider := &countingProvider{quote: domain.Quote{Symbol: "ETH", Price: decimal.NewFromInt(3000)}}
	service := NewQuoteService(cache.New(zap.NewNop()), provider, time.Minute, zap.NewNop())

	service.Put(domain.Quote{Symbol: "ETH", Price: decimal.NewFromInt(3100)})

	quote, err := service.Get(context.Background(), "eth")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if quote.Price.String() != "3100" {
		t.Errorf("price = %s, want the streamed 3100", quote.Price)
	}
	if provider.calls.Load() != 0 {
		t.Error("Put should satisfy reads without touching the provider")
	}
}
