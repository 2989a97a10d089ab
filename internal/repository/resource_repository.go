package repository

import (
	"context"
	"course_studio_backend/internal/model"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.DB.WithContext(ctx).Create(resource).Error
}

func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&resource).Error
	return &resource, err
}

func (r *ResourceRepository) FindByLesson(ctx context.Context, lessonID string) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.DB.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("order_index ASC").
		Find(&resources).Error
	return resources, err
}

// NextOrderIndex 新资源追加到末尾
func (r *ResourceRepository) NextOrderIndex(ctx context.Context, lessonID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Resource{}).Where("lesson_id = ?", lessonID).Count(&count).Error
	return int(count), err
}

func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Resource{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	return r.DB.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) FindByLesson(ctx context.Context, lessonID string) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.DB.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("order_index ASC").
		Find(&activities).Error
	return activities, err
}
