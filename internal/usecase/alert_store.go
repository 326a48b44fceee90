package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	alertKeyPrefix      = "alert:"
	userAlertsKeyPrefix = "user_alerts:"
)

// AlertStore keeps alerts in the shared cache: one key per alert, plus a
// per-user set of alert ids as the index. The store-level mutex makes the
// key and the index move together, so no observer sees an alert that is
// indexed but unfetchable or the other way round.
type AlertStore struct {
	store  *cache.Cache
	quotes QuoteSource
	logger *zap.Logger

	mu sync.Mutex
}

func NewAlertStore(store *cache.Cache, quotes QuoteSource, logger *zap.Logger) *AlertStore {
	return &AlertStore{store: store, quotes: quotes, logger: logger}
}

// Create validates and registers a new alert. The symbol must resolve to a
// live quote right now; an identical active alert (same user, symbol,
// target and condition) is rejected as a duplicate.
func (s *AlertStore) Create(ctx context.Context, userID int64, symbol string, targetPrice decimal.Decimal, condition string) (*domain.Alert, error) {
	if !targetPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	parsed, ok := domain.ParseCondition(condition)
	if !ok {
		return nil, ErrInvalidCondition
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil, domain.ErrSymbolNotFound
	}

	quote, err := s.quotes.Get(ctx, normalized)
	if err != nil {
		return nil, err
	}

	alert := domain.Alert{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symbol:      normalized,
		TargetPrice: targetPrice,
		Condition:   parsed,
		CreatedAt:   time.Now(),
		LastQuote:   quote,
	}

	// The duplicate check and the insert happen under the same lock hold, so
	// concurrent identical creates cannot both pass the check.
	s.mu.Lock()
	existing, err := s.ListForUser(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for _, other := range existing {
		if other.Symbol == normalized && other.Condition == parsed && other.TargetPrice.Equal(targetPrice) {
			s.mu.Unlock()
			return nil, ErrDuplicateAlert
		}
	}
	s.store.Set(alertKeyPrefix+alert.ID, alert, 0)
	s.store.SAdd(userAlertsKeyPrefix+formatUserID(userID), alert.ID)
	s.mu.Unlock()

	s.logger.Info(
		"alert created",
		zap.Int64("user_id", userID),
		zap.String("alert_id", alert.ID),
		zap.String("symbol", alert.Symbol),
		zap.String("condition", string(alert.Condition)),
		zap.String("target", alert.TargetPrice.String()),
	)
	return &alert, nil
}

// ListForUser returns the user's alerts, newest first. Index members whose
// alert key has vanished are skipped and pruned.
func (s *AlertStore) ListForUser(ctx context.Context, userID int64) ([]domain.Alert, error) {
	setKey := userAlertsKeyPrefix + formatUserID(userID)
	alerts := make([]domain.Alert, 0)
	for _, alertID := range s.store.SMembers(setKey) {
		value, ok := s.store.Get(alertKeyPrefix + alertID)
		if !ok {
			s.store.SRem(setKey, alertID)
			continue
		}
		alerts = append(alerts, value.(domain.Alert))
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

// Delete removes the alert and its index entry as one operation. Deleting
// an alert the user does not own reports not found, same as an unknown id.
func (s *AlertStore) Delete(ctx context.Context, userID int64, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.store.Get(alertKeyPrefix + alertID)
	if !ok {
		return ErrAlertNotFound
	}
	alert := value.(domain.Alert)
	if alert.UserID != userID {
		return ErrAlertNotFound
	}

	s.store.Delete(alertKeyPrefix + alertID)
	s.store.SRem(userAlertsKeyPrefix+formatUserID(userID), alertID)

	s.logger.Info("alert deleted", zap.Int64("user_id", userID), zap.String("alert_id", alertID))
	return nil
}

// ListActive returns every live alert across all users by walking the
// per-user index sets. Dangling members are tolerated and skipped.
func (s *AlertStore) ListActive(ctx context.Context) ([]domain.Alert, error) {
	alerts := make([]domain.Alert, 0)
	for _, setKey := range s.store.SScan(userAlertsKeyPrefix) {
		for _, alertID := range s.store.SMembers(setKey) {
			value, ok := s.store.Get(alertKeyPrefix + alertID)
			if !ok {
				continue
			}
			alerts = append(alerts, value.(domain.Alert))
		}
	}
	return alerts, nil
}

// ActiveSymbols returns the distinct symbols that currently carry alerts.
func (s *AlertStore) ActiveSymbols() []string {
	alerts, _ := s.ListActive(context.Background())
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, alert := range alerts {
		if _, ok := seen[alert.Symbol]; ok {
			continue
		}
		seen[alert.Symbol] = struct{}{}
		symbols = append(symbols, alert.Symbol)
	}
	return symbols
}

// AttachQuote records the most recent quote on a stored alert for display.
// A vanished alert is a benign miss.
func (s *AlertStore) AttachQuote(alertID string, quote domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.store.Get(alertKeyPrefix + alertID)
	if !ok {
		return
	}
	alert := value.(domain.Alert)
	alert.LastQuote = &quote
	s.store.Set(alertKeyPrefix+alertID, alert, 0)
}

func formatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
