package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	CoinGeckoBaseURL     string        `env:"COINGECKO_BASE_URL,default=https://api.coingecko.com/api/v3"`
	CoinGeckoAPIKey      string        `env:"COINGECKO_API_KEY"`
	CoinGeckoTimeout     time.Duration `env:"COINGECKO_TIMEOUT,default=10s"`
	UpstreamMinSpacing   time.Duration `env:"UPSTREAM_MIN_SPACING,default=1200ms"`
	CoinIDCacheTTL       time.Duration `env:"COIN_ID_CACHE_TTL,default=24h"`
	QuoteCacheTTL        time.Duration `env:"QUOTE_CACHE_TTL,default=60s"`
	CacheJanitorInterval time.Duration `env:"CACHE_JANITOR_INTERVAL,default=5m"`

	BinanceStreamEnabled bool          `env:"BINANCE_STREAM_ENABLED,default=false"`
	BinanceStreamURL     string        `env:"BINANCE_STREAM_URL,default=wss://stream.binance.com:9443/ws"`
	BinanceReadTimeout   time.Duration `env:"BINANCE_READ_TIMEOUT,default=0s"`

	MonitorInterval     time.Duration `env:"MONITOR_INTERVAL,default=60s"`
	MonitorFetchLimit   int           `env:"MONITOR_FETCH_LIMIT,default=4"`
	MonitorFetchTimeout time.Duration `env:"MONITOR_FETCH_TIMEOUT,default=30s"`
	NotifyTimeout       time.Duration `env:"NOTIFY_TIMEOUT,default=5s"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
