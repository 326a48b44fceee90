package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*User, error)
	GetByID(ctx context.Context, userID uint) (*User, error)
	Create(ctx context.Context, user *User) error
}

type PortfolioRepository interface {
	GetPosition(ctx context.Context, userID uint, symbol string) (*Position, error)
	ListByUser(ctx context.Context, userID uint) ([]Position, error)
	Save(ctx context.Context, position *Position) error
	Delete(ctx context.Context, userID uint, symbol string) error
}

type TriggerLogRepository interface {
	Append(ctx context.Context, record *TriggeredAlert) error
	ListByUser(ctx context.Context, telegramUserID int64, limit int) ([]TriggeredAlert, error)
}
