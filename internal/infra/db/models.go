package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type userModel struct {
	ID             uint   `gorm:"primaryKey"`
	TelegramUserID int64  `gorm:"uniqueIndex;not null"`
	Username       string `gorm:""`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

type positionModel struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"uniqueIndex:idx_positions_user_symbol,priority:1;not null"`
	Symbol    string          `gorm:"uniqueIndex:idx_positions_user_symbol,priority:2;not null"`
	Quantity  decimal.Decimal `gorm:"type:numeric;not null"`
	AvgPrice  decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type triggerModel struct {
	ID             uint            `gorm:"primaryKey"`
	TelegramUserID int64           `gorm:"index;not null"`
	Symbol         string          `gorm:"not null"`
	Condition      string          `gorm:"not null"`
	TargetPrice    decimal.Decimal `gorm:"type:numeric;not null"`
	FiredPrice     decimal.Decimal `gorm:"type:numeric;not null"`
	FiredAt        time.Time       `gorm:"index;not null"`
	CreatedAt      time.Time
}
