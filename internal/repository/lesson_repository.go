package repository

import (
	"context"
	"course_studio_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func byOrderIndex(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC")
}

func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Omit("Resources", "Activities").Create(lesson).Error
}

// CreateWithChildren 在同一事务中写入课时及其资源、活动，order_index 取列表位置
func (r *LessonRepository) CreateWithChildren(ctx context.Context, lesson *model.Lesson, resources []model.Resource, activities []model.Activity) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Resources", "Activities").Create(lesson).Error; err != nil {
			return err
		}

		for i := range resources {
			resources[i].LessonID = lesson.ID
			resources[i].OrderIndex = i
		}
		if len(resources) > 0 {
			if err := tx.Create(&resources).Error; err != nil {
				return err
			}
		}

		for i := range activities {
			activities[i].LessonID = lesson.ID
			activities[i].OrderIndex = i
		}
		if len(activities) > 0 {
			if err := tx.Create(&activities).Error; err != nil {
				return err
			}
		}

		lesson.Resources = resources
		lesson.Activities = activities
		return nil
	})
}

// FindByID 同时加载资源和活动
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).
		Preload("Resources", byOrderIndex).
		Preload("Activities", byOrderIndex).
		Where("id = ?", id).
		First(&lesson).Error
	return &lesson, err
}

func (r *LessonRepository) FindByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.WithContext(ctx).
		Preload("Resources", byOrderIndex).
		Where("course_id = ?", courseID).
		Order("session_no ASC").
		Order("created_at ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) Update(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).
		Model(lesson).
		Select("title", "clo_id", "session_no", "estimated_duration", "learning_objectives").
		Updates(lesson).Error
}

// UpdateSessionNo 拖拽排课后更新课时所在的 session
func (r *LessonRepository) UpdateSessionNo(ctx context.Context, id string, sessionNo int) error {
	res := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("id = ?", id).
		Update("session_no", sessionNo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&model.Resource{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id = ?", id).Delete(&model.Activity{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Lesson{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
