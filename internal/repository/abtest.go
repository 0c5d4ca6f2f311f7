package repository

import (
	"context"

	"procrastinators/internal/models"

	"gorm.io/gorm"
)

// ABTestRepository appends A/B events and counts clicks.
type ABTestRepository interface {
	RecordPageView(ctx context.Context, view *models.ABTestPageView) error
	RecordClick(ctx context.Context, click *models.ABTestButtonClick) error
	ClickTotals(ctx context.Context) (models.ClickTotals, error)
}

type abTestRepository struct {
	db *gorm.DB
}

// NewABTestRepository returns a GORM ABTestRepository.
func NewABTestRepository(db *gorm.DB) ABTestRepository {
	return &abTestRepository{db: db}
}

func (r *abTestRepository) RecordPageView(ctx context.Context, view *models.ABTestPageView) error {
	if err := r.db.WithContext(ctx).Create(view).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *abTestRepository) RecordClick(ctx context.Context, click *models.ABTestButtonClick) error {
	if err := r.db.WithContext(ctx).Create(click).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *abTestRepository) ClickTotals(ctx context.Context) (models.ClickTotals, error) {
	var rows []struct {
		Variant models.Variant
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ABTestButtonClick{}).
		Select("variant, COUNT(*) AS total").
		Group("variant").
		Scan(&rows).Error
	if err != nil {
		return models.ClickTotals{}, models.NewInternalError(err)
	}

	var totals models.ClickTotals
	for _, row := range rows {
		switch row.Variant {
		case models.VariantA:
			totals.A = row.Total
		case models.VariantB:
			totals.B = row.Total
		}
	}
	return totals, nil
}
