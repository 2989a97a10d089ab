package service

import (
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type CourseInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type CLOInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description" binding:"required"`
	BloomLevel  *string `json:"bloom_level"`
}

type CourseService struct {
	CourseRepo *repository.CourseRepository
	CLORepo    *repository.CLORepository
}

func NewCourseService(courseRepo *repository.CourseRepository, cloRepo *repository.CLORepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, CLORepo: cloRepo}
}

// notFound 把 gorm 的记录不存在转换为 util.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return err
}

// canManage 课程讲师或管理员
func canManage(claims *util.Claims, course *model.Course) bool {
	if claims == nil {
		return false
	}
	if claims.Role == model.Admin {
		return true
	}
	return course.InstructorID != nil && *course.InstructorID == claims.UserID
}

// Create 创建课程，标题去空格后不能为空，描述为空时存 NULL
func (s *CourseService) Create(ctx context.Context, claims *util.Claims, in *CourseInput) (*model.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, util.ErrTitleRequired
	}

	instructorID := claims.UserID
	course := &model.Course{
		Title:        title,
		Description:  util.TrimToNil(in.Description),
		InstructorID: &instructorID,
	}
	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.CourseRepo.List(ctx)
}

func (s *CourseService) ListMine(ctx context.Context, claims *util.Claims) ([]model.Course, error) {
	return s.CourseRepo.FindByInstructor(ctx, claims.UserID)
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	if !util.IsValidUUID(id) {
		return nil, util.ErrInvalidCourseID
	}
	course, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return course, nil
}

// authorize 加载课程并校验管理权限
func (s *CourseService) authorize(ctx context.Context, claims *util.Claims, id string) (*model.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(claims, course) {
		return nil, util.ErrPermissionDenied
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, claims *util.Claims, id string, in *CourseInput) (*model.Course, error) {
	course, err := s.authorize(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, util.ErrTitleRequired
	}
	course.Title = title
	course.Description = util.TrimToNil(in.Description)

	if err := s.CourseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, claims *util.Claims, id string) error {
	if _, err := s.authorize(ctx, claims, id); err != nil {
		return err
	}
	return notFound(s.CourseRepo.Delete(ctx, id))
}

func (s *CourseService) CreateCLO(ctx context.Context, claims *util.Claims, courseID string, in *CLOInput) (*model.CLO, error) {
	if _, err := s.authorize(ctx, claims, courseID); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, util.ErrInvalidRequest
	}

	orderIndex, err := s.CLORepo.NextOrderIndex(ctx, courseID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = description
	}

	clo := &model.CLO{
		CourseID:    courseID,
		Title:       title,
		Description: description,
		BloomLevel:  util.TrimToNil(in.BloomLevel),
		OrderIndex:  orderIndex,
	}
	if err := s.CLORepo.Create(ctx, clo); err != nil {
		return nil, err
	}
	return clo, nil
}

func (s *CourseService) ListCLOs(ctx context.Context, courseID string) ([]model.CLO, error) {
	if !util.IsValidUUID(courseID) {
		return nil, util.ErrInvalidCourseID
	}
	return s.CLORepo.FindByCourse(ctx, courseID)
}
