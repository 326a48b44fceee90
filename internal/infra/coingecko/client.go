package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const coinIDKeyPrefix = "coin_id:"

// Symbols resolved without asking the provider. The mapping is stable, so
// everything else goes through /search and is cached with a long TTL.
var wellKnownCoinIDs = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"usdt": "tether",
	"bnb":  "binancecoin",
	"xrp":  "ripple",
	"ada":  "cardano",
	"doge": "dogecoin",
	"sol":  "solana",
}

type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MinRequestSpacing time.Duration
	CoinIDTTL         time.Duration
}

// Client fetches quotes from CoinGecko. All upstream calls from one Client
// are spaced at least MinRequestSpacing apart; concurrent callers queue on
// the limiter rather than being rejected.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	store     *cache.Cache
	coinIDTTL time.Duration
	logger    *zap.Logger

	spacing     time.Duration
	limiterMu   sync.Mutex
	lastRequest time.Time
}

func NewClient(opts Options, store *cache.Cache, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		client:    &http.Client{Timeout: opts.Timeout},
		store:     store,
		coinIDTTL: opts.CoinIDTTL,
		logger:    logger,
		spacing:   opts.MinRequestSpacing,
	}
}

// GetQuote resolves symbol to a coin id and returns its current market data.
// Returns domain.ErrSymbolNotFound for unknown symbols and a wrapped
// domain.ErrUpstream for transient provider failures.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	coinID, err := c.resolveCoinID(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"ids":                     {coinID},
		"vs_currencies":           {"usd"},
		"include_market_cap":      {"true"},
		"include_24hr_vol":        {"true"},
		"include_24hr_change":     {"true"},
		"include_last_updated_at": {"true"},
	}

	var payload map[string]simplePriceEntry
	if err := c.getJSON(ctx, "/simple/price", params, &payload); err != nil {
		return nil, err
	}

	entry, ok := payload[coinID]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}

	quote := &domain.Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     entry.USD,
		Change24h: entry.USD24hChange.Decimal,
		MarketCap: entry.USDMarketCap.Decimal,
		Volume24h: entry.USD24hVol.Decimal,
		UpdatedAt: time.Unix(entry.LastUpdatedAt, 0),
	}
	if entry.LastUpdatedAt == 0 {
		quote.UpdatedAt = time.Now()
	}

	// High/low come from the coin details endpoint. Losing them is not
	// worth failing the quote over.
	if high, low, err := c.getDayRange(ctx, coinID); err != nil {
		c.logger.Debug("coin details unavailable", zap.String("coin_id", coinID), zap.Error(err))
	} else {
		quote.High24h = high
		quote.Low24h = low
	}

	return quote, nil
}

func (c *Client) resolveCoinID(ctx context.Context, symbol string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", domain.ErrSymbolNotFound
	}
	if id, ok := wellKnownCoinIDs[normalized]; ok {
		return id, nil
	}

	cacheKey := coinIDKeyPrefix + normalized
	if cached, ok := c.store.Get(cacheKey); ok {
		return cached.(string), nil
	}

	var payload searchResponse
	if err := c.getJSON(ctx, "/search", url.Values{"query": {normalized}}, &payload); err != nil {
		return "", err
	}
	if len(payload.Coins) == 0 {
		return "", domain.ErrSymbolNotFound
	}

	id := payload.Coins[0].ID
	c.store.Set(cacheKey, id, c.coinIDTTL)
	return id, nil
}

func (c *Client) getDayRange(ctx context.Context, coinID string) (high, low decimal.Decimal, err error) {
	params := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	}
	var payload coinDetailsResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(coinID), params, &payload); err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return payload.MarketData.High24h["usd"], payload.MarketData.Low24h["usd"], nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.waitTurn(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		request.Header.Set("X-CoinGecko-API-Key", c.apiKey)
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("coingecko request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer response.Body.Close()

	c.logger.Debug(
		"coingecko request complete",
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode == http.StatusNotFound {
		return domain.ErrSymbolNotFound
	}
	if response.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: rate limited", domain.ErrUpstream)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrUpstream, response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

// waitTurn blocks until this client's next upstream slot. The mutex is held
// across the sleep so callers are serialized and two calls can never go out
// back to back.
func (c *Client) waitTurn(ctx context.Context) error {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()

	if wait := c.spacing - time.Since(c.lastRequest); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}
