package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// GroupRepository defines data operations for groups and their members.
type GroupRepository interface {
	ListByProject(ctx context.Context, projectID uint) ([]models.Group, error)
	GetByID(ctx context.Context, id uint) (models.Group, error)
	GetForStudent(ctx context.Context, projectID, studentID uint) (models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, studentID uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates the repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Group{}).
		Preload("Members").
		Preload("Members.Student")
}

func (r *groupRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Group, error) {
	var groups []models.Group
	if err := r.baseQuery(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.baseQuery(ctx).First(&group, id).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *groupRepository) GetForStudent(ctx context.Context, projectID, studentID uint) (models.Group, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("groups.project_id = ?", projectID).
		Where("group_members.student_id = ?", studentID).
		First(&member).Error
	if err != nil {
		return models.Group{}, err
	}

	return r.GetByID(ctx, member.GroupID)
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Select("Members").Delete(&models.Group{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Where("student_id = ?", studentID).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether the error is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
