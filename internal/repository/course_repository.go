package repository

import (
	"context"
	"course_studio_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

// FindByID 同时加载 CLO 列表
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("CLOs", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Where("id = ?", id).
		First(&course).Error
	return &course, err
}

func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).
		Model(course).
		Select("title", "description").
		Updates(course).Error
}

// Delete 删除课程及其 CLO 和课时
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.CLO{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type CLORepository struct {
	DB *gorm.DB
}

func NewCLORepository(db *gorm.DB) *CLORepository {
	return &CLORepository{DB: db}
}

func (r *CLORepository) Create(ctx context.Context, clo *model.CLO) error {
	return r.DB.WithContext(ctx).Create(clo).Error
}

func (r *CLORepository) FindByID(ctx context.Context, id string) (*model.CLO, error) {
	var clo model.CLO
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&clo).Error
	return &clo, err
}

func (r *CLORepository) FindByCourse(ctx context.Context, courseID string) ([]model.CLO, error) {
	var clos []model.CLO
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&clos).Error
	return clos, err
}

// NextOrderIndex 课程下一个 CLO 的序号
func (r *CLORepository) NextOrderIndex(ctx context.Context, courseID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CLO{}).Where("course_id = ?", courseID).Count(&count).Error
	return int(count), err
}
