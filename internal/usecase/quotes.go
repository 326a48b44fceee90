package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/domain"
	"go.uber.org/zap"
)

const priceKeyPrefix = "price:"

// QuoteSource is the read path used by everything that needs a price.
type QuoteSource interface {
	Get(ctx context.Context, symbol string) (*domain.Quote, error)
}

// QuoteService is a read-through layer over the shared cache: a hit costs
// nothing, a miss asks the rate limited provider and stores the result with
// a short TTL so one fetch serves every consumer in the same window.
type QuoteService struct {
	store    *cache.Cache
	provider domain.QuoteProvider
	ttl      time.Duration
	logger   *zap.Logger
}

func NewQuoteService(store *cache.Cache, provider domain.QuoteProvider, ttl time.Duration, logger *zap.Logger) *QuoteService {
	return &QuoteService{store: store, provider: provider, ttl: ttl, logger: logger}
}

func (s *QuoteService) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	key := priceKeyPrefix + strings.ToLower(strings.TrimSpace(symbol))
	if cached, ok := s.store.Get(key); ok {
		quote := cached.(domain.Quote)
		return &quote, nil
	}

	quote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	s.store.Set(key, *quote, s.ttl)
	s.logger.Debug("quote cached", zap.String("symbol", quote.Symbol), zap.String("price", quote.Price.String()))
	return quote, nil
}

// Put stores an externally produced quote, same key and TTL as the read
// through path. Used by the stream warmer.
func (s *QuoteService) Put(quote domain.Quote) {
	s.store.Set(priceKeyPrefix+strings.ToLower(quote.Symbol), quote, s.ttl)
}
