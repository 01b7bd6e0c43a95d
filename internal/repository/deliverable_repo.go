package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// DeliverableRepository defines data operations for deliverables and their
// validation rules.
type DeliverableRepository interface {
	ListByProject(ctx context.Context, projectID uint) ([]models.Deliverable, error)
	GetByID(ctx context.Context, id uint) (models.Deliverable, error)
	Create(ctx context.Context, deliverable *models.Deliverable) error
	Update(ctx context.Context, deliverable *models.Deliverable) error
	Delete(ctx context.Context, id uint) error
	ReplaceRules(ctx context.Context, deliverableID uint, rules []models.ValidationRule) error
}

type deliverableRepository struct {
	db *gorm.DB
}

// NewDeliverableRepository instantiates the repository.
func NewDeliverableRepository(db *gorm.DB) DeliverableRepository {
	return &deliverableRepository{db: db}
}

func (r *deliverableRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *deliverableRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	if err := r.baseQuery(ctx).
		Where("project_id = ?", projectID).
		Order("deadline ASC").
		Find(&deliverables).Error; err != nil {
		return nil, err
	}
	return deliverables, nil
}

func (r *deliverableRepository) GetByID(ctx context.Context, id uint) (models.Deliverable, error) {
	var deliverable models.Deliverable
	if err := r.baseQuery(ctx).First(&deliverable, id).Error; err != nil {
		return models.Deliverable{}, err
	}
	return deliverable, nil
}

func (r *deliverableRepository) Create(ctx context.Context, deliverable *models.Deliverable) error {
	return r.db.WithContext(ctx).Create(deliverable).Error
}

func (r *deliverableRepository) Update(ctx context.Context, deliverable *models.Deliverable) error {
	return r.db.WithContext(ctx).Save(deliverable).Error
}

func (r *deliverableRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Deliverable{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deliverableRepository) ReplaceRules(ctx context.Context, deliverableID uint, rules []models.ValidationRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deliverable_id = ?", deliverableID).Delete(&models.ValidationRule{}).Error; err != nil {
			return err
		}
		for i := range rules {
			rules[i].DeliverableID = deliverableID
			rules[i].Position = i
		}
		if len(rules) == 0 {
			return nil
		}
		return tx.Create(&rules).Error
	})
}
