package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notifier delivers a message to a user's channel. Any error means the
// delivery did not happen and the alert stays live.
type Notifier interface {
	Notify(ctx context.Context, telegramUserID int64, text string) error
}

type MonitorConfig struct {
	Interval      time.Duration // spacing between check cycles
	FetchLimit    int           // max concurrent symbol fetches per cycle
	FetchTimeout  time.Duration // per-symbol fetch deadline, limiter wait included
	NotifyTimeout time.Duration // per-alert delivery deadline
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:      time.Minute,
		FetchLimit:    4,
		FetchTimeout:  30 * time.Second,
		NotifyTimeout: 5 * time.Second,
	}
}

// Monitor drives the periodic alert check: snapshot active alerts, fetch
// one quote per distinct symbol, evaluate thresholds, notify, and retire
// alerts whose notification was delivered.
type Monitor struct {
	cfg      MonitorConfig
	alerts   *AlertStore
	quotes   QuoteSource
	notifier Notifier
	triggers domain.TriggerLogRepository // optional
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMonitor(cfg MonitorConfig, alerts *AlertStore, quotes QuoteSource, notifier Notifier, triggers domain.TriggerLogRepository, logger *zap.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Monitor{
		cfg:      cfg,
		alerts:   alerts,
		quotes:   quotes,
		notifier: notifier,
		triggers: triggers,
		logger:   logger,
	}
}

// Start launches the tick loop. The loop stops when ctx is cancelled or
// Stop is called; it never stops because of a failing cycle.
func (m *Monitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()

	m.logger.Info("alert monitor started", zap.Duration("interval", m.cfg.Interval))
}

// Stop cancels the loop and waits for any in-flight cycle to wind down, up
// to ctx's deadline.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("alert monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// runCycle performs one full check. Whatever goes wrong inside stays inside:
// the next tick always happens.
func (m *Monitor) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert cycle panicked", zap.Any("panic", r))
		}
	}()

	alerts, err := m.alerts.ListActive(ctx)
	if err != nil {
		m.logger.Warn("failed to load active alerts", zap.Error(err))
		return
	}
	if len(alerts) == 0 {
		return
	}

	groups := groupBySymbol(alerts)
	quotes := m.fetchQuotes(ctx, groups)

	triggered := make([]domain.Alert, 0)
	for symbol, group := range groups {
		quote, ok := quotes[symbol]
		if !ok {
			// Fetch failed this cycle; these alerts are re-evaluated next tick.
			continue
		}
		for _, alert := range group {
			m.alerts.AttachQuote(alert.ID, quote)
			if alert.Triggered(quote.Price) {
				alert.LastQuote = &quote
				triggered = append(triggered, alert)
			}
		}
	}

	if len(triggered) == 0 {
		return
	}
	m.logger.Info("alerts triggered", zap.Int("count", len(triggered)))

	var wg sync.WaitGroup
	for _, alert := range triggered {
		wg.Add(1)
		go func(alert domain.Alert) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("notify panicked", zap.String("alert_id", alert.ID), zap.Any("panic", r))
				}
			}()
			m.notifyAndRetire(ctx, alert)
		}(alert)
	}
	wg.Wait()
}

func groupBySymbol(alerts []domain.Alert) map[string][]domain.Alert {
	groups := make(map[string][]domain.Alert)
	for _, alert := range alerts {
		symbol := strings.ToUpper(alert.Symbol)
		groups[symbol] = append(groups[symbol], alert)
	}
	return groups
}

// fetchQuotes resolves one quote per distinct symbol, concurrently up to
// FetchLimit. A failed symbol is logged and left out; it never blocks or
// fails the others.
func (m *Monitor) fetchQuotes(ctx context.Context, groups map[string][]domain.Alert) map[string]domain.Quote {
	var mu sync.Mutex
	quotes := make(map[string]domain.Quote, len(groups))

	var g errgroup.Group
	g.SetLimit(m.cfg.FetchLimit)
	for symbol := range groups {
		symbol := symbol
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
			defer cancel()

			quote, err := m.quotes.Get(fetchCtx, symbol)
			if err != nil {
				m.logger.Warn("quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			mu.Lock()
			quotes[symbol] = *quote
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

// notifyAndRetire attempts delivery for one triggered alert. Only a
// delivered notification retires the alert; on failure it stays active and
// fires again next cycle.
func (m *Monitor) notifyAndRetire(ctx context.Context, alert domain.Alert) {
	quote := *alert.LastQuote
	text := formatTriggerMessage(alert, quote)

	if err := m.notify(ctx, alert.UserID, text); err != nil {
		m.logger.Warn(
			"alert notification failed, will retry next cycle",
			zap.String("alert_id", alert.ID),
			zap.Int64("user_id", alert.UserID),
			zap.Error(err),
		)
		return
	}

	if m.triggers != nil {
		record := &domain.TriggeredAlert{
			UserID:      alert.UserID,
			Symbol:      alert.Symbol,
			Condition:   alert.Condition,
			TargetPrice: alert.TargetPrice,
			FiredPrice:  quote.Price,
			FiredAt:     time.Now(),
		}
		if err := m.triggers.Append(ctx, record); err != nil {
			m.logger.Warn("failed to record trigger", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}

	if err := m.alerts.Delete(ctx, alert.UserID, alert.ID); err != nil && err != ErrAlertNotFound {
		m.logger.Warn("failed to retire alert", zap.String("alert_id", alert.ID), zap.Error(err))
	}

	m.logger.Info(
		"alert delivered",
		zap.String("alert_id", alert.ID),
		zap.Int64("user_id", alert.UserID),
		zap.String("symbol", alert.Symbol),
		zap.String("price", quote.Price.String()),
	)
}

// notify bounds the delivery attempt so a hung transport cannot stall the
// cycle for sibling alerts.
func (m *Monitor) notify(ctx context.Context, userID int64, text string) error {
	notifyCtx, cancel := context.WithTimeout(ctx, m.cfg.NotifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.notifier.Notify(notifyCtx, userID, text)
	}()

	select {
	case err := <-done:
		return err
	case <-notifyCtx.Done():
		return notifyCtx.Err()
	}
}

func formatTriggerMessage(alert domain.Alert, quote domain.Quote) string {
	deviation := decimal.Zero
	if !alert.TargetPrice.IsZero() {
		deviation = quote.Price.Sub(alert.TargetPrice).Div(alert.TargetPrice).Mul(decimal.NewFromInt(100))
	}
	return fmt.Sprintf(
		"Price alert for %s!\nTarget: $%s (%s)\nCurrent price: $%s (%s%% vs target)\n24h change: %s%%",
		alert.Symbol,
		alert.TargetPrice.StringFixed(2),
		strings.ToLower(string(alert.Condition)),
		quote.Price.StringFixed(2),
		deviation.StringFixed(2),
		quote.Change24h.StringFixed(2),
	)
}
