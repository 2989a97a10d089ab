package repository

import (
	"context"
	"course_studio_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

// CreateWithQuestions 写入测验及题目，题目 order_index 取列表位置
func (r *AssessmentRepository) CreateWithQuestions(ctx context.Context, assessment *model.Assessment, questions []model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(assessment).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].AssessmentID = assessment.ID
			questions[i].OrderIndex = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		assessment.Questions = questions
		return nil
	})
}

func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.DB.WithContext(ctx).
		Preload("Questions", byOrderIndex).
		Where("id = ?", id).
		First(&assessment).Error
	return &assessment, err
}

func (r *AssessmentRepository) FindByLesson(ctx context.Context, lessonID string) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.DB.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&assessments).Error
	return assessments, err
}

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *AttemptRepository) FindByStudent(ctx context.Context, studentID, assessmentID string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	q := r.DB.WithContext(ctx).Where("student_id = ?", studentID)
	if assessmentID != "" {
		q = q.Where("assessment_id = ?", assessmentID)
	}
	err := q.Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}
