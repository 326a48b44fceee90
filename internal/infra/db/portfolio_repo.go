package db

import (
	"context"
	"strings"

	"github.com/mkrutov/pricebot/internal/domain"
	"gorm.io/gorm"
)

type PortfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) GetPosition(ctx context.Context, userID uint, symbol string) (*domain.Position, error) {
	var model positionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, strings.ToUpper(symbol)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	position := mapPositionToDomain(model)
	return &position, nil
}

func (r *PortfolioRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Position, error) {
	var models []positionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol").Find(&models).Error; err != nil {
		return nil, err
	}
	positions := make([]domain.Position, 0, len(models))
	for _, model := range models {
		positions = append(positions, mapPositionToDomain(model))
	}
	return positions, nil
}

func (r *PortfolioRepository) Save(ctx context.Context, position *domain.Position) error {
	model := positionModel{
		ID:       position.ID,
		UserID:   position.UserID,
		Symbol:   strings.ToUpper(position.Symbol),
		Quantity: position.Quantity,
		AvgPrice: position.AvgPrice,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	position.ID = model.ID
	position.CreatedAt = model.CreatedAt
	position.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *PortfolioRepository) Delete(ctx context.Context, userID uint, symbol string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, strings.ToUpper(symbol)).
		Delete(&positionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapPositionToDomain(model positionModel) domain.Position {
	return domain.Position{
		ID:        model.ID,
		UserID:    model.UserID,
		Symbol:    model.Symbol,
		Quantity:  model.Quantity,
		AvgPrice:  model.AvgPrice,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
