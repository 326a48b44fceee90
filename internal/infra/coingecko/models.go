package coingecko

import "github.com/shopspring/decimal"

type simplePriceEntry struct {
	USD           decimal.Decimal     `json:"usd"`
	USDMarketCap  decimal.NullDecimal `json:"usd_market_cap"`
	USD24hVol     decimal.NullDecimal `json:"usd_24h_vol"`
	USD24hChange  decimal.NullDecimal `json:"usd_24h_change"`
	LastUpdatedAt int64               `json:"last_updated_at"`
}

type searchResponse struct {
	Coins []searchCoin `json:"coins"`
}

type searchCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type coinDetailsResponse struct {
	MarketData coinMarketData `json:"market_data"`
}

type coinMarketData struct {
	High24h map[string]decimal.Decimal `json:"high_24h"`
	Low24h  map[string]decimal.Decimal `json:"low_24h"`
}
