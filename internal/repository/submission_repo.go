package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// SubmissionRepository defines data operations for submissions. Replace
// implements the replace-not-append invariant: at most one live submission
// per (deliverable, group) pair, last write wins.
type SubmissionRepository interface {
	ListByDeliverable(ctx context.Context, deliverableID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByDeliverableAndGroup(ctx context.Context, deliverableID, groupID uint) (models.Submission, error)
	Replace(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, id uint) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Group").
		Preload("Group.Members")
}

func (r *submissionRepository) ListByDeliverable(ctx context.Context, deliverableID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("deliverable_id = ?", deliverableID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetByDeliverableAndGroup(ctx context.Context, deliverableID, groupID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("deliverable_id = ?", deliverableID).
		Where("group_id = ?", groupID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Replace(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("deliverable_id = ?", submission.DeliverableID).
			Where("group_id = ?", submission.GroupID).
			Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		return tx.Create(submission).Error
	})
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
