package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             uint
	TelegramUserID int64
	Username       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Position is one portfolio holding: quantity of a symbol at a volume
// weighted average entry price.
type Position struct {
	ID        uint
	UserID    uint
	Symbol    string
	Quantity  decimal.Decimal
	AvgPrice  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
