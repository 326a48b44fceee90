package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PositionView is a portfolio position enriched with live market data.
type PositionView struct {
	domain.Position
	CurrentPrice  decimal.Decimal
	Value         decimal.Decimal
	UnrealizedPnL decimal.Decimal
	PnLPercent    decimal.Decimal
	Change24h     decimal.Decimal
}

type PortfolioUsecase struct {
	users     domain.UserRepository
	positions domain.PortfolioRepository
	quotes    QuoteSource
	logger    *zap.Logger
}

func NewPortfolioUsecase(users domain.UserRepository, positions domain.PortfolioRepository, quotes QuoteSource, logger *zap.Logger) *PortfolioUsecase {
	return &PortfolioUsecase{users: users, positions: positions, quotes: quotes, logger: logger}
}

// Buy adds quantity at price to the user's position, recomputing the volume
// weighted average entry price.
func (u *PortfolioUsecase) Buy(ctx context.Context, telegramUserID int64, symbol string, quantity, price decimal.Decimal) (*domain.Position, error) {
	user, err := u.lookupUser(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if _, err := u.quotes.Get(ctx, normalized); err != nil {
		return nil, err
	}

	position, err := u.positions.GetPosition(ctx, user.ID, normalized)
	switch {
	case err == nil:
		total := position.Quantity.Add(quantity)
		cost := position.Quantity.Mul(position.AvgPrice).Add(quantity.Mul(price))
		position.AvgPrice = cost.Div(total)
		position.Quantity = total
	case errors.Is(err, domain.ErrNotFound):
		position = &domain.Position{
			UserID:   user.ID,
			Symbol:   normalized,
			Quantity: quantity,
			AvgPrice: price,
		}
	default:
		return nil, err
	}

	if err := u.positions.Save(ctx, position); err != nil {
		return nil, err
	}
	return position, nil
}

// Sell reduces the position by quantity; selling the full amount removes it.
func (u *PortfolioUsecase) Sell(ctx context.Context, telegramUserID int64, symbol string, quantity decimal.Decimal) (*domain.Position, error) {
	user, err := u.lookupUser(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	position, err := u.positions.GetPosition(ctx, user.ID, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	switch quantity.Cmp(position.Quantity) {
	case 1:
		return nil, ErrInsufficientQuantity
	case 0:
		if err := u.positions.Delete(ctx, user.ID, normalized); err != nil {
			return nil, err
		}
		position.Quantity = decimal.Zero
		return position, nil
	default:
		position.Quantity = position.Quantity.Sub(quantity)
		if err := u.positions.Save(ctx, position); err != nil {
			return nil, err
		}
		return position, nil
	}
}

// List returns the user's positions valued at current quotes. A position
// whose quote cannot be fetched is returned without market data rather than
// failing the whole listing.
func (u *PortfolioUsecase) List(ctx context.Context, telegramUserID int64) ([]PositionView, error) {
	user, err := u.lookupUser(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}

	positions, err := u.positions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	views := make([]PositionView, 0, len(positions))
	for _, position := range positions {
		view := PositionView{Position: position}
		quote, err := u.quotes.Get(ctx, position.Symbol)
		if err != nil {
			u.logger.Warn("portfolio quote unavailable", zap.String("symbol", position.Symbol), zap.Error(err))
			views = append(views, view)
			continue
		}

		view.CurrentPrice = quote.Price
		view.Change24h = quote.Change24h
		view.Value = position.Quantity.Mul(quote.Price)
		cost := position.Quantity.Mul(position.AvgPrice)
		view.UnrealizedPnL = view.Value.Sub(cost)
		if position.AvgPrice.IsPositive() {
			view.PnLPercent = quote.Price.Sub(position.AvgPrice).Div(position.AvgPrice).Mul(decimal.NewFromInt(100))
		}
		views = append(views, view)
	}
	return views, nil
}

func (u *PortfolioUsecase) lookupUser(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}
	return user, nil
}
