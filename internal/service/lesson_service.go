package service

import (
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type LessonInput struct {
	CourseID           string   `json:"course_id"`
	CLOID              *string  `json:"clo_id"`
	Title              string   `json:"title"`
	SessionNo          int      `json:"session_no"`
	EstimatedDuration  string   `json:"estimated_duration"`
	LearningObjectives []string `json:"learning_objectives"`
}

type LessonService struct {
	LessonRepo *repository.LessonRepository
	Courses    *CourseService
}

func NewLessonService(lessonRepo *repository.LessonRepository, courses *CourseService) *LessonService {
	return &LessonService{LessonRepo: lessonRepo, Courses: courses}
}

// ListByCourse 按 session_no 排序返回课程下的课时
func (s *LessonService) ListByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	if !util.IsValidUUID(courseID) {
		return nil, util.ErrInvalidCourseID
	}
	return s.LessonRepo.FindByCourse(ctx, courseID)
}

func (s *LessonService) Get(ctx context.Context, id string) (*model.Lesson, error) {
	if !util.IsValidUUID(id) {
		return nil, util.ErrInvalidUUID
	}
	lesson, err := s.LessonRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return lesson, nil
}

// authorize 加载课时并校验所属课程的管理权限
func (s *LessonService) authorize(ctx context.Context, claims *util.Claims, id string) (*model.Lesson, error) {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Courses.authorize(ctx, claims, lesson.CourseID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Create(ctx context.Context, claims *util.Claims, in *LessonInput) (*model.Lesson, error) {
	if _, err := s.Courses.authorize(ctx, claims, in.CourseID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, util.ErrTitleRequired
	}
	if in.SessionNo < 1 {
		return nil, fmt.Errorf("%w: session_no must be >= 1", util.ErrInvalidRequest)
	}

	lesson := &model.Lesson{
		CourseID:          in.CourseID,
		CLOID:             util.TrimToNil(in.CLOID),
		Title:             title,
		SessionNo:         in.SessionNo,
		EstimatedDuration: in.EstimatedDuration,
	}
	lesson.SetObjectives(in.LearningObjectives)

	if err := s.LessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Update(ctx context.Context, claims *util.Claims, id string, in *LessonInput) (*model.Lesson, error) {
	lesson, err := s.authorize(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		lesson.Title = title
	}
	if in.SessionNo != 0 {
		if in.SessionNo < 1 {
			return nil, fmt.Errorf("%w: session_no must be >= 1", util.ErrInvalidRequest)
		}
		lesson.SessionNo = in.SessionNo
	}
	if in.CLOID != nil {
		lesson.CLOID = util.TrimToNil(in.CLOID)
	}
	if in.EstimatedDuration != "" {
		lesson.EstimatedDuration = in.EstimatedDuration
	}
	if in.LearningObjectives != nil {
		lesson.SetObjectives(in.LearningObjectives)
	}

	if err := s.LessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// MoveSession 看板拖拽后持久化新的 session_no
func (s *LessonService) MoveSession(ctx context.Context, claims *util.Claims, id string, sessionNo int) (*model.Lesson, error) {
	if sessionNo < 1 {
		return nil, fmt.Errorf("%w: session_no must be >= 1", util.ErrInvalidRequest)
	}

	lesson, err := s.authorize(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	if err := s.LessonRepo.UpdateSessionNo(ctx, id, sessionNo); err != nil {
		return nil, notFound(err)
	}

	logger.Log.Info("Lesson moved",
		zap.String("lesson_id", id),
		zap.Int("from", lesson.SessionNo),
		zap.Int("to", sessionNo),
	)
	lesson.SessionNo = sessionNo
	return lesson, nil
}

func (s *LessonService) Delete(ctx context.Context, claims *util.Claims, id string) error {
	if _, err := s.authorize(ctx, claims, id); err != nil {
		return err
	}
	return notFound(s.LessonRepo.Delete(ctx, id))
}
