package service

import (
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// QuestionView 学生视角下隐藏答案和解析
type QuestionView struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	QuestionText  string         `json:"question_text"`
	Options       datatypes.JSON `json:"options"`
	BloomLevel    *string        `json:"bloom_level"`
	Points        int            `json:"points"`
	OrderIndex    int            `json:"order_index"`
	CorrectAnswer *string        `json:"correct_answer,omitempty"`
	Explanation   *string        `json:"explanation,omitempty"`
}

type AssessmentView struct {
	ID                string         `json:"id"`
	LessonID          *string        `json:"lesson_id"`
	Title             string         `json:"title"`
	EstimatedDuration *string        `json:"estimated_duration"`
	TotalPoints       int            `json:"total_points"`
	Questions         []QuestionView `json:"questions"`
}

type AttemptInput struct {
	// Answers 题目 id -> 作答
	Answers   map[string]string `json:"answers" binding:"required"`
	StartedAt *time.Time        `json:"started_at"`
}

type AssessmentService struct {
	AssessmentRepo *repository.AssessmentRepository
	AttemptRepo    *repository.AttemptRepository
	now            func() time.Time
}

func NewAssessmentService(assessmentRepo *repository.AssessmentRepository, attemptRepo *repository.AttemptRepository) *AssessmentService {
	return &AssessmentService{
		AssessmentRepo: assessmentRepo,
		AttemptRepo:    attemptRepo,
		now:            time.Now,
	}
}

func newAssessmentView(a *model.Assessment, withAnswers bool) *AssessmentView {
	view := &AssessmentView{
		ID:                a.ID,
		LessonID:          a.LessonID,
		Title:             a.Title,
		EstimatedDuration: a.EstimatedDuration,
		TotalPoints:       a.TotalPoints,
		Questions:         make([]QuestionView, 0, len(a.Questions)),
	}
	for _, q := range a.Questions {
		qv := QuestionView{
			ID:           q.ID,
			Type:         q.Type,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			BloomLevel:   q.BloomLevel,
			Points:       q.Points,
			OrderIndex:   q.OrderIndex,
		}
		if withAnswers {
			answer := q.CorrectAnswer
			qv.CorrectAnswer = &answer
			qv.Explanation = q.Explanation
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// Get 教师和管理员可以看到答案
func (s *AssessmentService) Get(ctx context.Context, claims *util.Claims, id string) (*AssessmentView, error) {
	if !util.IsValidUUID(id) {
		return nil, util.ErrInvalidUUID
	}
	assessment, err := s.AssessmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	withAnswers := claims != nil && claims.Role.CanTeach()
	return newAssessmentView(assessment, withAnswers), nil
}

func (s *AssessmentService) ListByLesson(ctx context.Context, lessonID string) ([]model.Assessment, error) {
	if !util.IsValidUUID(lessonID) {
		return nil, util.ErrInvalidUUID
	}
	return s.AssessmentRepo.FindByLesson(ctx, lessonID)
}

// ScoreAnswers 答案去空格后忽略大小写比较，返回得分与总分
func ScoreAnswers(questions []model.Question, answers map[string]string) (score, total int) {
	for _, q := range questions {
		total += q.Points
		given, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.CorrectAnswer)) {
			score += q.Points
		}
	}
	return score, total
}

// SubmitAttempt 评分并保存学生作答
func (s *AssessmentService) SubmitAttempt(ctx context.Context, claims *util.Claims, assessmentID string, in *AttemptInput) (*model.Attempt, error) {
	if !util.IsValidUUID(assessmentID) {
		return nil, util.ErrInvalidUUID
	}
	assessment, err := s.AssessmentRepo.FindByID(ctx, assessmentID)
	if err != nil {
		return nil, notFound(err)
	}

	score, total := ScoreAnswers(assessment.Questions, in.Answers)

	answers, err := json.Marshal(in.Answers)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	attempt := &model.Attempt{
		AssessmentID:  assessmentID,
		StudentID:     claims.UserID,
		Answers:       datatypes.JSON(answers),
		Score:         score,
		TotalPossible: total,
		StartedAt:     in.StartedAt,
		CompletedAt:   &completedAt,
	}
	if err := s.AttemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *AssessmentService) ListAttempts(ctx context.Context, claims *util.Claims, assessmentID string) ([]model.Attempt, error) {
	return s.AttemptRepo.FindByStudent(ctx, claims.UserID, assessmentID)
}
