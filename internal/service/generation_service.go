package service

import (
	"bytes"
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"course_studio_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var validate = validator.New()

// validateRequest 校验失败包装为 util.ErrInvalidRequest
func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on '%s'", util.ErrInvalidRequest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", util.ErrInvalidRequest, err)
	}
	return nil
}

type LessonRequest struct {
	CourseID         string   `json:"courseId" validate:"required,uuid"`
	CLOID            *string  `json:"cloId" validate:"omitempty,uuid"`
	SessionNo        int      `json:"sessionNo" validate:"gte=1"`
	Topic            string   `json:"topic" validate:"required"`
	LearningOutcomes []string `json:"learningOutcomes"`
}

type GeneratedResource struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Duration    string `json:"duration,omitempty"`
}

type GeneratedActivity struct {
	ID            string `json:"id,omitempty"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	EstimatedTime string `json:"estimatedTime,omitempty"`
}

// LessonPlan 模型生成的课时方案
type LessonPlan struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	EstimatedDuration  string              `json:"estimatedDuration"`
	LearningObjectives []string            `json:"learningObjectives"`
	Resources          []GeneratedResource `json:"resources"`
	Activities         []GeneratedActivity `json:"activities"`
}

type QuizRequest struct {
	LessonID        string   `json:"lessonId" validate:"required,uuid"`
	QuestionCount   int      `json:"questionCount" validate:"gte=1,lte=50"`
	BloomsLevels    []string `json:"bloomsLevels" validate:"required,min=1"`
	DifficultyLevel string   `json:"difficultyLevel" validate:"required"`
}

// AnswerValue 兼容模型把答案写成数字或布尔值
type AnswerValue string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerValue(s)
		return nil
	}
	if string(data) == "null" {
		*a = ""
		return nil
	}
	*a = AnswerValue(string(data))
	return nil
}

type QuizQuestion struct {
	Type          string      `json:"type"`
	Question      string      `json:"question"`
	Options       []string    `json:"options,omitempty"`
	CorrectAnswer AnswerValue `json:"correctAnswer"`
	BloomsLevel   string      `json:"bloomsLevel"`
	Explanation   string      `json:"explanation"`
}

type Quiz struct {
	ID                string         `json:"id"`
	LessonID          string         `json:"lessonId,omitempty"`
	Title             string         `json:"title"`
	EstimatedDuration string         `json:"estimatedDuration"`
	TotalPoints       int            `json:"totalPoints"`
	Questions         []QuizQuestion `json:"questions"`
}

type SessionPlanRequest struct {
	CourseTitle       string `json:"courseTitle" validate:"required"`
	CourseDescription string `json:"courseDescription"`
	NumberOfSessions  int    `json:"numberOfSessions" validate:"gte=1,lte=100"`
	Topics            string `json:"topics"`
	SessionDuration   string `json:"sessionDuration"`
}

type SessionPlanItem struct {
	SessionNo         int      `json:"sessionNo"`
	Title             string   `json:"title"`
	Objectives        []string `json:"objectives"`
	EstimatedDuration string   `json:"estimatedDuration"`
}

type SessionPlan struct {
	Sessions []SessionPlanItem `json:"sessions"`
}

type TopicsRequest struct {
	CourseTitle       string `json:"courseTitle" validate:"required"`
	CourseDescription string `json:"courseDescription"`
	NumberOfSessions  int    `json:"numberOfSessions" validate:"gte=1,lte=100"`
	SessionDuration   string `json:"sessionDuration"`
	CourseLevel       string `json:"courseLevel"`
	CourseCategory    string `json:"courseCategory"`
}

type TopicsResult struct {
	Topics string `json:"topics"`
}

// 每道题的固定分值
const pointsPerQuestion = 5

type GenerationService struct {
	ai             *AIService
	budget         *TokenBudget
	courses        *CourseService
	lessons        *LessonService
	lessonRepo     *repository.LessonRepository
	assessmentRepo *repository.AssessmentRepository
	now            func() time.Time
}

func NewGenerationService(
	ai *AIService,
	budget *TokenBudget,
	courses *CourseService,
	lessons *LessonService,
	lessonRepo *repository.LessonRepository,
	assessmentRepo *repository.AssessmentRepository,
) *GenerationService {
	return &GenerationService{
		ai:             ai,
		budget:         budget,
		courses:        courses,
		lessons:        lessons,
		lessonRepo:     lessonRepo,
		assessmentRepo: assessmentRepo,
		now:            time.Now,
	}
}

func (s *GenerationService) servedFallback(endpoint string) {
	monitoring.LLMFallbacks.WithLabelValues(endpoint).Inc()
	logger.Log.Info("AI key not configured, serving fallback content", zap.String("endpoint", endpoint))
}

// authorizeLesson 落库前校验课程归属，CLO 必须属于同一课程
func (s *GenerationService) authorizeLesson(ctx context.Context, claims *util.Claims, req *LessonRequest) error {
	if claims == nil {
		return util.ErrUnauthorized
	}
	if _, err := s.courses.authorize(ctx, claims, req.CourseID); err != nil {
		return err
	}
	if req.CLOID == nil {
		return nil
	}
	clo, err := s.courses.CLORepo.FindByID(ctx, *req.CLOID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown cloId", util.ErrInvalidRequest)
		}
		return err
	}
	if clo.CourseID != req.CourseID {
		return fmt.Errorf("%w: cloId belongs to another course", util.ErrInvalidRequest)
	}
	return nil
}

// GenerateLesson 生成课时并写入 lessons/resources/activities
// 未配置 key 时匿名返回示例课时；否则调用方必须能管理目标课程
func (s *GenerationService) GenerateLesson(ctx context.Context, claims *util.Claims, caller string, req *LessonRequest) (*LessonPlan, error) {
	if !s.ai.Configured() {
		s.servedFallback(util.EndpointGenerateLesson)
		return fallbackLesson(s.now()), nil
	}
	req.CLOID = util.TrimToNil(req.CLOID)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.authorizeLesson(ctx, claims, req); err != nil {
		return nil, err
	}

	result, err := completeWithinBudget(ctx, s.ai, s.budget, caller, Completion{
		Endpoint:    util.EndpointGenerateLesson,
		System:      lessonSystemPrompt,
		User:        buildLessonPrompt(req),
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}

	var plan LessonPlan
	if err := ExtractJSON(result.Content, &plan); err != nil {
		logger.Log.Error("Failed to parse AI lesson", zap.Error(err))
		return nil, util.ErrInvalidAIResponse
	}

	lesson := &model.Lesson{
		CourseID:          req.CourseID,
		CLOID:             req.CLOID,
		Title:             plan.Title,
		SessionNo:         req.SessionNo,
		EstimatedDuration: plan.EstimatedDuration,
	}
	lesson.SetObjectives(plan.LearningObjectives)

	resources := make([]model.Resource, 0, len(plan.Resources))
	for _, r := range plan.Resources {
		resources = append(resources, model.Resource{
			Type:        model.ResourceType(r.Type),
			Title:       r.Title,
			Description: util.StrPtr(r.Description),
			URL:         r.URL,
			Duration:    util.StrPtr(r.Duration),
		})
	}

	activities := make([]model.Activity, 0, len(plan.Activities))
	for _, a := range plan.Activities {
		activities = append(activities, model.Activity{
			Type:          a.Type,
			Title:         a.Title,
			Description:   util.StrPtr(a.Description),
			EstimatedTime: util.StrPtr(a.EstimatedTime),
		})
	}

	if err := s.lessonRepo.CreateWithChildren(ctx, lesson, resources, activities); err != nil {
		return nil, fmt.Errorf("save generated lesson: %w", err)
	}

	plan.ID = lesson.ID
	for i := range plan.Resources {
		plan.Resources[i].ID = lesson.Resources[i].ID
	}
	for i := range plan.Activities {
		plan.Activities[i].ID = lesson.Activities[i].ID
	}

	logger.Log.Info("Lesson generated",
		zap.String("lesson_id", lesson.ID),
		zap.String("course_id", req.CourseID),
		zap.Int("session_no", req.SessionNo),
	)
	return &plan, nil
}

// GenerateQuiz 生成测验并写入 assessments/questions，调用方必须能管理课时所属课程
func (s *GenerationService) GenerateQuiz(ctx context.Context, claims *util.Claims, caller string, req *QuizRequest) (*Quiz, error) {
	if !s.ai.Configured() {
		s.servedFallback(util.EndpointGenerateQuiz)
		return fallbackQuiz(s.now()), nil
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, util.ErrUnauthorized
	}
	if _, err := s.lessons.authorize(ctx, claims, req.LessonID); err != nil {
		return nil, err
	}

	result, err := completeWithinBudget(ctx, s.ai, s.budget, caller, Completion{
		Endpoint:    util.EndpointGenerateQuiz,
		System:      quizSystemPrompt,
		User:        buildQuizPrompt(req),
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}

	var quiz Quiz
	if err := ExtractJSON(result.Content, &quiz); err != nil {
		logger.Log.Error("Failed to parse AI quiz", zap.Error(err))
		return nil, util.ErrInvalidAIResponse
	}

	totalPoints := len(quiz.Questions) * pointsPerQuestion
	lessonID := req.LessonID
	assessment := &model.Assessment{
		LessonID:          &lessonID,
		Title:             quiz.Title,
		EstimatedDuration: util.StrPtr(quiz.EstimatedDuration),
		TotalPoints:       totalPoints,
	}

	questions := make([]model.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		var options datatypes.JSON
		if q.Options != nil {
			data, _ := json.Marshal(q.Options)
			options = datatypes.JSON(data)
		}
		questions = append(questions, model.Question{
			Type:          q.Type,
			QuestionText:  q.Question,
			Options:       options,
			CorrectAnswer: string(q.CorrectAnswer),
			BloomLevel:    util.StrPtr(q.BloomsLevel),
			Explanation:   util.StrPtr(q.Explanation),
			Points:        pointsPerQuestion,
		})
	}

	if err := s.assessmentRepo.CreateWithQuestions(ctx, assessment, questions); err != nil {
		return nil, fmt.Errorf("save generated quiz: %w", err)
	}

	quiz.ID = assessment.ID
	quiz.LessonID = req.LessonID
	quiz.TotalPoints = totalPoints
	return &quiz, nil
}

// GenerateSessionPlan 生成课程的 session 规划，不落库
func (s *GenerationService) GenerateSessionPlan(ctx context.Context, caller string, req *SessionPlanRequest) (*SessionPlan, error) {
	if !s.ai.Configured() {
		s.servedFallback(util.EndpointGenerateSessionPlan)
		return fallbackSessionPlan(req.NumberOfSessions, req.SessionDuration), nil
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result, err := completeWithinBudget(ctx, s.ai, s.budget, caller, Completion{
		Endpoint:    util.EndpointGenerateSessionPlan,
		System:      sessionPlanSystemPrompt,
		User:        buildSessionPlanPrompt(req),
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Sessions json.RawMessage `json:"sessions"`
	}
	if err := ExtractJSON(result.Content, &raw); err != nil {
		logger.Log.Error("Failed to parse AI session plan", zap.Error(err))
		return nil, util.ErrInvalidAIResponse
	}

	trimmed := bytes.TrimSpace(raw.Sessions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, util.ErrInvalidSessionPlan
	}

	var plan SessionPlan
	if err := json.Unmarshal(trimmed, &plan.Sessions); err != nil {
		return nil, util.ErrInvalidSessionPlan
	}

	if len(plan.Sessions) != req.NumberOfSessions {
		logger.Log.Warn("Session plan count mismatch",
			zap.Int("expected", req.NumberOfSessions),
			zap.Int("got", len(plan.Sessions)),
		)
	}
	return &plan, nil
}

// GenerateCourseTopics 生成课程主题大纲（纯文本）
func (s *GenerationService) GenerateCourseTopics(ctx context.Context, caller string, req *TopicsRequest) (*TopicsResult, error) {
	if !s.ai.Configured() {
		s.servedFallback(util.EndpointGenerateTopics)
		return &TopicsResult{Topics: fallbackTopics}, nil
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result, err := completeWithinBudget(ctx, s.ai, s.budget, caller, Completion{
		Endpoint:    util.EndpointGenerateTopics,
		System:      topicsSystemPrompt,
		User:        buildTopicsPrompt(req),
		Temperature: defaultTemperature,
		MaxTokens:   topicsMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &TopicsResult{Topics: result.Content}, nil
}
