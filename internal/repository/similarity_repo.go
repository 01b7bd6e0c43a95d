package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// SimilarityReportRepository stores comparator results fetched from the
// remote similarity service.
type SimilarityReportRepository interface {
	GetLatestByDeliverable(ctx context.Context, deliverableID uint) (models.SimilarityReport, error)
	Create(ctx context.Context, report *models.SimilarityReport) error
}

type similarityReportRepository struct {
	db *gorm.DB
}

// NewSimilarityReportRepository instantiates the repository.
func NewSimilarityReportRepository(db *gorm.DB) SimilarityReportRepository {
	return &similarityReportRepository{db: db}
}

func (r *similarityReportRepository) GetLatestByDeliverable(ctx context.Context, deliverableID uint) (models.SimilarityReport, error) {
	var report models.SimilarityReport
	if err := r.db.WithContext(ctx).Model(&models.SimilarityReport{}).
		Preload("Pairs").
		Where("deliverable_id = ?", deliverableID).
		Order("generated_at DESC").
		First(&report).Error; err != nil {
		return models.SimilarityReport{}, err
	}
	return report, nil
}

func (r *similarityReportRepository) Create(ctx context.Context, report *models.SimilarityReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}
