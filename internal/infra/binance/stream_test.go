package binance

import (
	"testing"
)

func TestDecodeMiniTicker(t *testing.T) {
	data := []byte(`{"e":"24hrMiniTicker","E":1700000000000,"s":"BTCUSDT","c":"60500.25","o":"59000.00","h":"61000.00","l":"58500.00","v":"12345.6","q":"740000000.5"}`)

	quote, ok := decodeMiniTicker(data)
	if !ok {
		t.Fatal("decodeMiniTicker rejected a valid payload")
	}
	if quote.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", quote.Symbol)
	}
	if quote.Price.String() != "60500.25" {
		t.Errorf("Price = %s, want 60500.25", quote.Price)
	}
	if quote.High24h.String() != "61000" || quote.Low24h.String() != "58500" {
		t.Errorf("day range = %s/%s", quote.High24h, quote.Low24h)
	}
	if quote.Change24h.IsZero() {
		t.Error("Change24h should be derived from open/close")
	}
}

func TestDecodeMiniTickerIgnoresOtherEvents(t *testing.T) {
	for _, data := range []string{
		`{"result":null,"id":1}`,
		`{"e":"trade","s":"BTCUSDT"}`,
		`not json`,
	} {
		if _, ok := decodeMiniTicker([]byte(data)); ok {
			t.Errorf("decodeMiniTicker accepted %q", data)
		}
	}
}
