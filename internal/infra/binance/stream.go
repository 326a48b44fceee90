// Package binance keeps the quote cache warm for symbols that carry alerts
// by following Binance miniTicker streams, so monitor cycles mostly hit the
// cache instead of the rate limited REST provider.
package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

// SymbolSource reports the symbols currently worth streaming.
type SymbolSource interface {
	ActiveSymbols() []string
}

// QuoteSink receives quotes produced by the stream.
type QuoteSink interface {
	Put(quote domain.Quote)
}

type Stream struct {
	url         string
	dialer      *websocket.Dialer
	readTimeout time.Duration
	symbols     SymbolSource
	sink        QuoteSink
	logger      *zap.Logger
}

func NewStream(url string, readTimeout time.Duration, symbols SymbolSource, sink QuoteSink, logger *zap.Logger) *Stream {
	return &Stream{
		url: url,
		dialer: &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		},
		readTimeout: readTimeout,
		symbols:     symbols,
		sink:        sink,
		logger:      logger,
	}
}

// Run connects, subscribes, and feeds ticker updates into the sink until
// ctx is cancelled, reconnecting after read failures. Stream failures never
// surface to callers: the REST read-through path stays authoritative.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.runOnce(ctx); err != nil {
			s.logger.Warn("binance stream interrupted", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Stream) runOnce(ctx context.Context) error {
	symbols := s.symbols.ActiveSymbols()
	if len(symbols) == 0 {
		return nil
	}

	s.logger.Info("binance stream connect", zap.String("url", s.url), zap.Int("symbol_count", len(symbols)))
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	params := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		params = append(params, strings.ToLower(symbol)+"usdt@miniTicker")
	}
	subscribe := map[string]any{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return err
	}

	for {
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		event, ok := decodeMiniTicker(data)
		if !ok {
			continue
		}
		s.sink.Put(event)
	}
}

type miniTickerPayload struct {
	EventType string          `json:"e"`
	EventTime int64           `json:"E"`
	Symbol    string          `json:"s"`
	Close     decimal.Decimal `json:"c"`
	Open      decimal.Decimal `json:"o"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Volume    decimal.Decimal `json:"q"`
}

func decodeMiniTicker(data []byte) (domain.Quote, bool) {
	var payload miniTickerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.Quote{}, false
	}
	if payload.EventType != "24hrMiniTicker" {
		return domain.Quote{}, false
	}

	symbol := strings.ToUpper(strings.TrimSuffix(strings.ToLower(payload.Symbol), "usdt"))
	quote := domain.Quote{
		Symbol:    symbol,
		Price:     payload.Close,
		High24h:   payload.High,
		Low24h:    payload.Low,
		Volume24h: payload.Volume,
		UpdatedAt: time.UnixMilli(payload.EventTime),
	}
	if !payload.Open.IsZero() {
		quote.Change24h = payload.Close.Sub(payload.Open).Div(payload.Open).Mul(decimal.NewFromInt(100))
	}
	return quote, true
}
