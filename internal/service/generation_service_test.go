package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/testutil"
	"course_studio_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGenerationService(t *testing.T, db *gorm.DB, cfgBaseURL, key string, store UsageStore) *GenerationService {
	t.Helper()
	if store == nil {
		store = &stubStore{}
	}
	courses := NewCourseService(repository.NewCourseRepository(db), repository.NewCLORepository(db))
	return NewGenerationService(
		NewAIService(aiConfig(cfgBaseURL, key)),
		NewTokenBudget(store, defaultSettings()),
		courses,
		NewLessonService(repository.NewLessonRepository(db), courses),
		repository.NewLessonRepository(db),
		repository.NewAssessmentRepository(db),
	)
}

func TestExtractJSON(t *testing.T) {
	var out map[string]string

	require.NoError(t, ExtractJSON(`{"a":"1"}`, &out))
	assert.Equal(t, "1", out["a"])

	require.NoError(t, ExtractJSON("```json\n{\"a\":\"2\"}\n```", &out))
	assert.Equal(t, "2", out["a"])

	require.NoError(t, ExtractJSON("```\n{\"a\":\"3\"}\n```  ", &out))
	assert.Equal(t, "3", out["a"])

	require.NoError(t, ExtractJSON("```json {\"a\":\"4\"}```", &out))
	assert.Equal(t, "4", out["a"])

	require.NoError(t, ExtractJSON("```{\"a\":\"5\"}```", &out))
	assert.Equal(t, "5", out["a"])

	err := ExtractJSON("Sorry, I can't help with that.", &out)
	assert.ErrorIs(t, err, util.ErrInvalidAIResponse)
}

func TestGenerateLessonFallbackWithoutKey(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newGenerationService(t, db, "http://127.0.0.1:1", "", nil)
	fixed := time.UnixMilli(1760000000123)
	svc.now = func() time.Time { return fixed }

	// 未配置时不校验请求体
	plan, err := svc.GenerateLesson(context.Background(), nil, "ip:1.1.1.1", &LessonRequest{})
	require.NoError(t, err)

	assert.Equal(t, "lesson-1760000000123", plan.ID)
	assert.Equal(t, "Introduction to Machine Learning", plan.Title)
	assert.Len(t, plan.LearningObjectives, 3)
	require.Len(t, plan.Resources, 1)
	assert.Equal(t, "res1", plan.Resources[0].ID)
	assert.Equal(t, "act1", plan.Activities[0].ID)

	var count int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateLessonPersistsPlan(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)

	llm := newFakeLLM(t, "```json\n"+`{
  "title": "Linear Regression",
  "estimatedDuration": "2 hours",
  "learningObjectives": ["Fit a line", "Interpret coefficients"],
  "resources": [
    {"type": "video", "title": "Least squares", "url": "https://example.com/ls", "duration": "12 min"},
    {"type": "pdf", "title": "Notes", "url": "https://example.com/notes.pdf"}
  ],
  "activities": [
    {"type": "lab-exercise", "title": "Fit housing prices", "estimatedTime": "45 min"}
  ]
}`+"\n```", 800)
	store := &stubStore{}
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", store)

	plan, err := svc.GenerateLesson(context.Background(), claimsFor(teacher), teacher.ID, &LessonRequest{
		CourseID:         course.ID,
		CLOID:            util.StrPtr("   "),
		SessionNo:        3,
		Topic:            "Linear regression",
		LearningOutcomes: []string{"Model continuous targets"},
	})
	require.NoError(t, err)
	assert.True(t, util.IsValidUUID(plan.ID))
	assert.Equal(t, []int{800}, store.recorded)

	lesson, err := repository.NewLessonRepository(db).FindByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linear Regression", lesson.Title)
	assert.Equal(t, 3, lesson.SessionNo)
	assert.Nil(t, lesson.CLOID)
	assert.Equal(t, []string{"Fit a line", "Interpret coefficients"}, lesson.Objectives())
	require.Len(t, lesson.Resources, 2)
	assert.Equal(t, "Least squares", lesson.Resources[0].Title)
	assert.Equal(t, 0, lesson.Resources[0].OrderIndex)
	assert.Equal(t, 1, lesson.Resources[1].OrderIndex)
	assert.Nil(t, lesson.Resources[1].Duration)
	require.Len(t, lesson.Activities, 1)
	assert.Equal(t, plan.Activities[0].ID, lesson.Activities[0].ID)

	req := llm.LastRequest()
	assert.Equal(t, "gpt-4o", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Topic: Linear regression")
	assert.Contains(t, req.Messages[1].Content, "Session Number: 3")
}

func TestGenerateLessonRejectsInvalidRequest(t *testing.T) {
	db := testutil.NewDB(t)
	llm := newFakeLLM(t, "{}", 1)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	_, err := svc.GenerateLesson(context.Background(), nil, "user-1", &LessonRequest{
		CourseID:  "not-a-uuid",
		SessionNo: 1,
		Topic:     "x",
	})
	assert.ErrorIs(t, err, util.ErrInvalidRequest)
	assert.Equal(t, 0, llm.Hits())
}

func TestGenerateLessonInvalidAIResponse(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)
	llm := newFakeLLM(t, "I'm sorry, here is a lesson: Linear Regression", 50)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	_, err := svc.GenerateLesson(context.Background(), claimsFor(teacher), teacher.ID, &LessonRequest{
		CourseID:  course.ID,
		SessionNo: 1,
		Topic:     "Regression",
	})
	assert.ErrorIs(t, err, util.ErrInvalidAIResponse)
}

func TestGenerateLessonUpstreamError(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)
	llm := newFakeLLM(t, "", 0)
	llm.status = http.StatusInternalServerError
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	_, err := svc.GenerateLesson(context.Background(), claimsFor(teacher), teacher.ID, &LessonRequest{
		CourseID:  course.ID,
		SessionNo: 1,
		Topic:     "Regression",
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, util.ErrRateLimited))
	assert.Contains(t, err.Error(), "OpenAI API error: 500")
}

func TestGenerateLessonRateLimited(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)
	llm := newFakeLLM(t, "{}", 1)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", &stubStore{used: 10000})

	_, err := svc.GenerateLesson(context.Background(), claimsFor(teacher), teacher.ID, &LessonRequest{
		CourseID:  course.ID,
		SessionNo: 1,
		Topic:     "Regression",
	})
	assert.ErrorIs(t, err, util.ErrRateLimited)
	assert.Equal(t, 0, llm.Hits())

	var count int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateLessonRequiresCourseOwner(t *testing.T) {
	db := testutil.NewDB(t)
	_, course := testutil.SeedCourse(t, db)
	other, _ := testutil.SeedCourse(t, db)
	llm := newFakeLLM(t, `{"title": "Injected"}`, 10)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)
	ctx := context.Background()

	req := func(courseID string) *LessonRequest {
		return &LessonRequest{CourseID: courseID, SessionNo: 1, Topic: "Regression"}
	}

	_, err := svc.GenerateLesson(ctx, nil, "ip:10.0.0.1", req(course.ID))
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = svc.GenerateLesson(ctx, claimsFor(other), other.ID, req(course.ID))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = svc.GenerateLesson(ctx, claimsFor(other), other.ID, req(model.GenerateUUID()))
	assert.ErrorIs(t, err, util.ErrNotFound)

	assert.Equal(t, 0, llm.Hits())
	var count int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateLessonRejectsForeignCLO(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)
	_, otherCourse := testutil.SeedCourse(t, db)
	clo := &model.CLO{CourseID: otherCourse.ID, Title: "CLO1", Description: "Explain bias"}
	require.NoError(t, db.Create(clo).Error)

	llm := newFakeLLM(t, `{"title": "Bias"}`, 10)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	_, err := svc.GenerateLesson(context.Background(), claimsFor(teacher), teacher.ID, &LessonRequest{
		CourseID:  course.ID,
		CLOID:     &clo.ID,
		SessionNo: 1,
		Topic:     "Bias",
	})
	assert.ErrorIs(t, err, util.ErrInvalidRequest)
	assert.Equal(t, 0, llm.Hits())
}

func TestGenerateQuizRequiresLessonOwner(t *testing.T) {
	db := testutil.NewDB(t)
	_, course := testutil.SeedCourse(t, db)
	lesson := testutil.SeedLesson(t, db, course.ID, 1, "Linear Regression")
	other, _ := testutil.SeedCourse(t, db)
	llm := newFakeLLM(t, `{"title": "Injected", "questions": []}`, 10)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	quizReq := &QuizRequest{
		LessonID:        lesson.ID,
		QuestionCount:   1,
		BloomsLevels:    []string{"Knowledge"},
		DifficultyLevel: "easy",
	}

	_, err := svc.GenerateQuiz(context.Background(), nil, "ip:10.0.0.1", quizReq)
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = svc.GenerateQuiz(context.Background(), claimsFor(other), other.ID, quizReq)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	assert.Equal(t, 0, llm.Hits())
	var count int64
	require.NoError(t, db.Model(&model.Assessment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateQuizPersistsQuestions(t *testing.T) {
	db := testutil.NewDB(t)
	teacher, course := testutil.SeedCourse(t, db)
	lesson := testutil.SeedLesson(t, db, course.ID, 1, "Linear Regression")

	llm := newFakeLLM(t, `{
  "title": "Regression Check",
  "estimatedDuration": "15 minutes",
  "questions": [
    {"type": "multiple-choice", "question": "Which loss?", "options": ["MAE","MSE","Hinge","Log"], "correctAnswer": 1, "bloomsLevel": "Knowledge", "explanation": "MSE"},
    {"type": "true-false", "question": "R2 can be negative", "correctAnswer": true, "bloomsLevel": "Comprehension", "explanation": "Yes"},
    {"type": "multiple-choice", "question": "Slope meaning?", "options": ["a","b","c","d"], "correctAnswer": "2", "bloomsLevel": "Application", "explanation": "c"}
  ]
}`, 600)
	svc := newGenerationService(t, db, llm.srv.URL, "test-key", nil)

	quiz, err := svc.GenerateQuiz(context.Background(), claimsFor(teacher), teacher.ID, &QuizRequest{
		LessonID:        lesson.ID,
		QuestionCount:   3,
		BloomsLevels:    []string{"Knowledge", "Application"},
		DifficultyLevel: "medium",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, quiz.TotalPoints)
	assert.Equal(t, lesson.ID, quiz.LessonID)
	assert.Equal(t, AnswerValue("1"), quiz.Questions[0].CorrectAnswer)
	assert.Equal(t, AnswerValue("true"), quiz.Questions[1].CorrectAnswer)

	assessment, err := repository.NewAssessmentRepository(db).FindByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, assessment.TotalPoints)
	require.Len(t, assessment.Questions, 3)
	assert.Equal(t, "Which loss?", assessment.Questions[0].QuestionText)
	assert.Equal(t, 5, assessment.Questions[0].Points)
	assert.Equal(t, "true", assessment.Questions[1].CorrectAnswer)
	assert.Contains(t, llm.LastRequest().Messages[1].Content, "Generate a quiz with 3 multiple-choice questions")
}

func TestGenerateQuizFallback(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newGenerationService(t, db, "", "", nil)
	svc.now = func() time.Time { return time.UnixMilli(42) }

	quiz, err := svc.GenerateQuiz(context.Background(), nil, "ip:1.1.1.1", &QuizRequest{})
	require.NoError(t, err)
	assert.Equal(t, "quiz-42", quiz.ID)
	assert.Equal(t, 25, quiz.TotalPoints)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, AnswerValue("1"), quiz.Questions[0].CorrectAnswer)
}

func TestGenerateSessionPlan(t *testing.T) {
	req := func() *SessionPlanRequest {
		return &SessionPlanRequest{
			CourseTitle:      "Intro to ML",
			NumberOfSessions: 3,
			Topics:           "regression, classification",
			SessionDuration:  "90 minutes",
		}
	}

	t.Run("fallback numbers sessions", func(t *testing.T) {
		svc := newGenerationService(t, testutil.NewDB(t), "", "", nil)
		plan, err := svc.GenerateSessionPlan(context.Background(), "u", req())
		require.NoError(t, err)
		require.Len(t, plan.Sessions, 3)
		assert.Equal(t, "Session 2: Introduction to Topic 2", plan.Sessions[1].Title)
		assert.Equal(t, "90 minutes", plan.Sessions[2].EstimatedDuration)
		assert.Len(t, plan.Sessions[0].Objectives, 3)
	})

	t.Run("sessions must be an array", func(t *testing.T) {
		llm := newFakeLLM(t, `{"sessions": "three sessions"}`, 10)
		svc := newGenerationService(t, testutil.NewDB(t), llm.srv.URL, "k", nil)
		_, err := svc.GenerateSessionPlan(context.Background(), "u", req())
		assert.ErrorIs(t, err, util.ErrInvalidSessionPlan)
	})

	t.Run("missing sessions", func(t *testing.T) {
		llm := newFakeLLM(t, `{"plan": []}`, 10)
		svc := newGenerationService(t, testutil.NewDB(t), llm.srv.URL, "k", nil)
		_, err := svc.GenerateSessionPlan(context.Background(), "u", req())
		assert.ErrorIs(t, err, util.ErrInvalidSessionPlan)
	})

	t.Run("count mismatch is tolerated", func(t *testing.T) {
		llm := newFakeLLM(t, `{"sessions": [
			{"sessionNo": 1, "title": "Foundations", "objectives": ["a"], "estimatedDuration": "90 minutes"},
			{"sessionNo": 2, "title": "Models", "objectives": ["b"], "estimatedDuration": "90 minutes"}
		]}`, 10)
		svc := newGenerationService(t, testutil.NewDB(t), llm.srv.URL, "k", nil)
		plan, err := svc.GenerateSessionPlan(context.Background(), "u", req())
		require.NoError(t, err)
		assert.Len(t, plan.Sessions, 2)
		assert.Equal(t, "Models", plan.Sessions[1].Title)
	})
}

func TestFallbackSessionPlanClamp(t *testing.T) {
	assert.Empty(t, fallbackSessionPlan(-3, "1h").Sessions)
	assert.Len(t, fallbackSessionPlan(500, "1h").Sessions, maxFallbackSessions)
}

func TestGenerateCourseTopics(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		svc := newGenerationService(t, testutil.NewDB(t), "", "", nil)
		res, err := svc.GenerateCourseTopics(context.Background(), "u", &TopicsRequest{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Topics, "Topic 1: Introduction and Fundamentals"))
	})

	t.Run("raw text with token cap", func(t *testing.T) {
		llm := newFakeLLM(t, "1. Foundations\n2. Regression\n", 300)
		svc := newGenerationService(t, testutil.NewDB(t), llm.srv.URL, "k", nil)
		res, err := svc.GenerateCourseTopics(context.Background(), "u", &TopicsRequest{
			CourseTitle:      "Intro to ML",
			NumberOfSessions: 12,
			SessionDuration:  "2 hours",
		})
		require.NoError(t, err)
		assert.Equal(t, "1. Foundations\n2. Regression\n", res.Topics)

		sent := llm.LastRequest()
		assert.Equal(t, topicsMaxTokens, sent.MaxTokens)
		assert.Contains(t, sent.Messages[1].Content, "Course Level: Intermediate")
		assert.Contains(t, sent.Messages[1].Content, "Course Description: No description provided")
	})
}
