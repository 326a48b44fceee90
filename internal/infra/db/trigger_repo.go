package db

import (
	"context"

	"github.com/mkrutov/pricebot/internal/domain"
	"gorm.io/gorm"
)

type TriggerLogRepository struct {
	db *gorm.DB
}

func NewTriggerLogRepository(db *gorm.DB) *TriggerLogRepository {
	return &TriggerLogRepository{db: db}
}

func (r *TriggerLogRepository) Append(ctx context.Context, record *domain.TriggeredAlert) error {
	model := triggerModel{
		TelegramUserID: record.UserID,
		Symbol:         record.Symbol,
		Condition:      string(record.Condition),
		TargetPrice:    record.TargetPrice,
		FiredPrice:     record.FiredPrice,
		FiredAt:        record.FiredAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	record.ID = model.ID
	return nil
}

func (r *TriggerLogRepository) ListByUser(ctx context.Context, telegramUserID int64, limit int) ([]domain.TriggeredAlert, error) {
	var models []triggerModel
	query := r.db.WithContext(ctx).
		Where("telegram_user_id = ?", telegramUserID).
		Order("fired_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.TriggeredAlert, 0, len(models))
	for _, model := range models {
		records = append(records, domain.TriggeredAlert{
			ID:          model.ID,
			UserID:      model.TelegramUserID,
			Symbol:      model.Symbol,
			Condition:   domain.Condition(model.Condition),
			TargetPrice: model.TargetPrice,
			FiredPrice:  model.FiredPrice,
			FiredAt:     model.FiredAt,
		})
	}
	return records, nil
}
