package service

import (
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

type ResourceInput struct {
	Type        model.ResourceType `json:"type" binding:"required,oneof=video pdf reading external lab"`
	Title       string             `json:"title" binding:"required"`
	Description *string            `json:"description"`
	URL         string             `json:"url" binding:"required"`
	Duration    *string            `json:"duration"`
}

// UploadInput 上传文件资源
type UploadInput struct {
	Filename    string
	Title       string
	Description *string
	Body        io.Reader
}

type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	ActivityRepo *repository.ActivityRepository
	Lessons      *LessonService
	Storage      *StorageService
	// probeVideo 便于测试替换
	probeVideo func(path string) (*util.VideoInfo, error)
}

func NewResourceService(
	resourceRepo *repository.ResourceRepository,
	activityRepo *repository.ActivityRepository,
	lessons *LessonService,
	storage *StorageService,
) *ResourceService {
	return &ResourceService{
		ResourceRepo: resourceRepo,
		ActivityRepo: activityRepo,
		Lessons:      lessons,
		Storage:      storage,
		probeVideo:   util.GetVideoInfo,
	}
}

func (s *ResourceService) Create(ctx context.Context, claims *util.Claims, lessonID string, in *ResourceInput) (*model.Resource, error) {
	if _, err := s.Lessons.authorize(ctx, claims, lessonID); err != nil {
		return nil, err
	}

	orderIndex, err := s.ResourceRepo.NextOrderIndex(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	resource := &model.Resource{
		LessonID:    lessonID,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: util.TrimToNil(in.Description),
		URL:         strings.TrimSpace(in.URL),
		Duration:    util.TrimToNil(in.Duration),
		OrderIndex:  orderIndex,
	}
	if err := s.ResourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// Upload 暂存到临时文件，校验 MIME，视频用 ffprobe 补全时长后上传到存储
func (s *ResourceService) Upload(ctx context.Context, claims *util.Claims, lessonID string, in *UploadInput) (*model.Resource, error) {
	if _, err := s.Lessons.authorize(ctx, claims, lessonID); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "resource-*")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, copyErr := io.Copy(tmp, io.LimitReader(in.Body, util.MaxUploadSize+1))
	closeErr := tmp.Close()
	if copyErr != nil {
		return nil, copyErr
	}
	if closeErr != nil {
		return nil, closeErr
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return nil, err
	}
	if info.Size() > util.MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", util.ErrInvalidRequest, util.MaxUploadSize)
	}

	head, err := os.Open(tmpPath)
	if err != nil {
		return nil, err
	}
	mimeType, err := util.ValidateMimeType(head, util.AllowedResourceMimes)
	head.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidRequest, err)
	}

	resourceType := util.ResourceTypeForMime(mimeType)

	var duration *string
	if resourceType == model.ResourceVideo {
		if video, err := s.probeVideo(tmpPath); err != nil {
			logger.Log.Warn("Video probe failed", zap.String("file", in.Filename), zap.Error(err))
		} else {
			duration = util.StrPtr(util.FormatDuration(video.Duration))
		}
	}

	key := ResourceObjectKey(lessonID, in.Filename)
	url, err := s.Storage.UploadFile(ctx, key, tmpPath, mimeType)
	if err != nil {
		return nil, fmt.Errorf("upload resource: %w", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.Filename
	}

	orderIndex, err := s.ResourceRepo.NextOrderIndex(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	resource := &model.Resource{
		LessonID:    lessonID,
		Type:        resourceType,
		Title:       title,
		Description: util.TrimToNil(in.Description),
		URL:         url,
		Duration:    duration,
		OrderIndex:  orderIndex,
	}
	if err := s.ResourceRepo.Create(ctx, resource); err != nil {
		// 回滚已上传的对象
		if delErr := s.Storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logger.Log.Warn("Failed to remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	logger.Log.Info("Resource uploaded",
		zap.String("lesson_id", lessonID),
		zap.String("mime", mimeType),
		zap.String("key", key),
	)
	return resource, nil
}

func (s *ResourceService) ListByLesson(ctx context.Context, lessonID string) ([]model.Resource, error) {
	if !util.IsValidUUID(lessonID) {
		return nil, util.ErrInvalidUUID
	}
	return s.ResourceRepo.FindByLesson(ctx, lessonID)
}

func (s *ResourceService) Delete(ctx context.Context, claims *util.Claims, id string) error {
	if !util.IsValidUUID(id) {
		return util.ErrInvalidUUID
	}
	resource, err := s.ResourceRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if _, err := s.Lessons.authorize(ctx, claims, resource.LessonID); err != nil {
		return err
	}
	return notFound(s.ResourceRepo.Delete(ctx, id))
}

type ActivityInput struct {
	Type          string  `json:"type" binding:"required"`
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description"`
	EstimatedTime *string `json:"estimated_time"`
}

func (s *ResourceService) CreateActivity(ctx context.Context, claims *util.Claims, lessonID string, in *ActivityInput) (*model.Activity, error) {
	lesson, err := s.Lessons.authorize(ctx, claims, lessonID)
	if err != nil {
		return nil, err
	}

	activity := &model.Activity{
		LessonID:      lessonID,
		Type:          in.Type,
		Title:         strings.TrimSpace(in.Title),
		Description:   util.TrimToNil(in.Description),
		EstimatedTime: util.TrimToNil(in.EstimatedTime),
		OrderIndex:    len(lesson.Activities),
	}
	if err := s.ActivityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}
