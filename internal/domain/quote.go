package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSymbolNotFound means the symbol could not be resolved to a listed
	// asset. Callers should not retry automatically.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUpstream means the market data provider failed transiently.
	// Callers may retry on a later cycle.
	ErrUpstream = errors.New("market data unavailable")
)

// Quote is an immutable snapshot of a symbol's market data. A new fetch
// produces a new Quote; quotes are never mutated in place.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	Change24h decimal.Decimal
	MarketCap decimal.Decimal
	Volume24h decimal.Decimal
	High24h   decimal.Decimal
	Low24h    decimal.Decimal
	UpdatedAt time.Time
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
