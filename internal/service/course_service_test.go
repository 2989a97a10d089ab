package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"course_studio_backend/internal/config"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/testutil"
	"course_studio_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db         *gorm.DB
	courses    *CourseService
	lessons    *LessonService
	resources  *ResourceService
	assessment *AssessmentService
	storage    *MemoryStorageProvider
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewDB(t)
	courses := NewCourseService(repository.NewCourseRepository(db), repository.NewCLORepository(db))
	lessons := NewLessonService(repository.NewLessonRepository(db), courses)
	mem := NewMemoryStorageProvider()
	resources := NewResourceService(
		repository.NewResourceRepository(db),
		repository.NewActivityRepository(db),
		lessons,
		&StorageService{Provider: mem},
	)
	return &services{
		db:         db,
		courses:    courses,
		lessons:    lessons,
		resources:  resources,
		assessment: NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewAttemptRepository(db)),
		storage:    mem,
	}
}

func claimsFor(p *model.Profile) *util.Claims {
	return &util.Claims{UserID: p.ID, Role: p.Role, Email: p.Email}
}

func TestCourseCreateNormalizesInput(t *testing.T) {
	s := newServices(t)
	teacher, _ := testutil.SeedCourse(t, s.db)
	ctx := context.Background()

	blank := "   "
	course, err := s.courses.Create(ctx, claimsFor(teacher), &CourseInput{Title: "  Deep Learning  ", Description: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Deep Learning", course.Title)
	assert.Nil(t, course.Description)
	assert.Equal(t, teacher.ID, *course.InstructorID)

	_, err = s.courses.Create(ctx, claimsFor(teacher), &CourseInput{Title: "   "})
	assert.ErrorIs(t, err, util.ErrTitleRequired)

	mine, err := s.courses.ListMine(ctx, claimsFor(teacher))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCourseGetValidatesID(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.courses.Get(ctx, "42")
	assert.ErrorIs(t, err, util.ErrInvalidCourseID)

	_, err = s.courses.Get(ctx, model.GenerateUUID())
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestCourseOwnership(t *testing.T) {
	s := newServices(t)
	owner, course := testutil.SeedCourse(t, s.db)
	other, _ := testutil.SeedCourse(t, s.db)
	ctx := context.Background()

	_, err := s.courses.Update(ctx, claimsFor(other), course.ID, &CourseInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	admin := &util.Claims{UserID: "admin", Role: model.Admin}
	updated, err := s.courses.Update(ctx, admin, course.ID, &CourseInput{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	require.NoError(t, s.courses.Delete(ctx, claimsFor(owner), course.ID))
	_, err = s.courses.Get(ctx, course.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestCreateCLOOrdering(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	ctx := context.Background()

	first, err := s.courses.CreateCLO(ctx, claimsFor(teacher), course.ID, &CLOInput{Description: "Explain bias and variance"})
	require.NoError(t, err)
	second, err := s.courses.CreateCLO(ctx, claimsFor(teacher), course.ID, &CLOInput{Title: "CLO 2", Description: "Train a classifier"})
	require.NoError(t, err)
	assert.Less(t, first.OrderIndex, second.OrderIndex)

	clos, err := s.courses.ListCLOs(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, clos, 2)
	assert.Equal(t, first.ID, clos[0].ID)
}

func TestLessonMoveSession(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	lesson := testutil.SeedLesson(t, s.db, course.ID, 1, "Perceptrons")
	ctx := context.Background()

	_, err := s.lessons.MoveSession(ctx, claimsFor(teacher), lesson.ID, 0)
	assert.ErrorIs(t, err, util.ErrInvalidRequest)

	moved, err := s.lessons.MoveSession(ctx, claimsFor(teacher), lesson.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, moved.SessionNo)

	stored, err := s.lessons.Get(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.SessionNo)

	student := &util.Claims{UserID: "s1", Role: model.Student}
	_, err = s.lessons.MoveSession(ctx, student, lesson.ID, 2)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestLessonCreateValidation(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	ctx := context.Background()

	_, err := s.lessons.Create(ctx, claimsFor(teacher), &LessonInput{CourseID: course.ID, Title: "x", SessionNo: 0})
	assert.ErrorIs(t, err, util.ErrInvalidRequest)

	lesson, err := s.lessons.Create(ctx, claimsFor(teacher), &LessonInput{
		CourseID:           course.ID,
		Title:              " Decision Trees ",
		SessionNo:          2,
		LearningObjectives: []string{"Split on entropy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Decision Trees", lesson.Title)
	assert.Equal(t, []string{"Split on entropy"}, lesson.Objectives())

	list, err := s.lessons.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.lessons.ListByCourse(ctx, "nope")
	assert.ErrorIs(t, err, util.ErrInvalidCourseID)
}

func TestResourceUploadPDF(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	lesson := testutil.SeedLesson(t, s.db, course.ID, 1, "Clustering")
	ctx := context.Background()

	body := []byte("%PDF-1.4\n% k-means notes\n")
	res, err := s.resources.Upload(ctx, claimsFor(teacher), lesson.ID, &UploadInput{
		Filename: "kmeans.pdf",
		Body:     bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResourcePDF, res.Type)
	assert.Equal(t, "kmeans.pdf", res.Title)
	assert.Nil(t, res.Duration)

	key := res.URL[len("memory://"):]
	stored, ok := s.storage.Object(key)
	require.True(t, ok)
	assert.Equal(t, body, stored)

	list, err := s.resources.ListByLesson(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestResourceUploadVideoProbesDuration(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	lesson := testutil.SeedLesson(t, s.db, course.ID, 1, "CNNs")
	s.resources.probeVideo = func(path string) (*util.VideoInfo, error) {
		return &util.VideoInfo{Duration: 754}, nil
	}

	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
	res, err := s.resources.Upload(context.Background(), claimsFor(teacher), lesson.ID, &UploadInput{
		Filename: "lecture.mp4",
		Title:    "Convolutions explained",
		Body:     bytes.NewReader(mp4),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResourceVideo, res.Type)
	require.NotNil(t, res.Duration)
	assert.Equal(t, "13 min", *res.Duration)
}

func TestResourceUploadRejectsUnknownType(t *testing.T) {
	s := newServices(t)
	teacher, course := testutil.SeedCourse(t, s.db)
	lesson := testutil.SeedLesson(t, s.db, course.ID, 1, "RNNs")

	_, err := s.resources.Upload(context.Background(), claimsFor(teacher), lesson.ID, &UploadInput{
		Filename: "blob.bin",
		Body:     bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xff, 0xfe}),
	})
	assert.ErrorIs(t, err, util.ErrInvalidRequest)
}

func TestAttemptScoring(t *testing.T) {
	s := newServices(t)
	_, course := testutil.SeedCourse(t, s.db)
	lesson := testutil.SeedLesson(t, s.db, course.ID, 1, "SVMs")
	ctx := context.Background()

	lessonID := lesson.ID
	assessment := &model.Assessment{LessonID: &lessonID, Title: "SVM quiz", TotalPoints: 15}
	questions := []model.Question{
		{Type: model.QuestionMultipleChoice, QuestionText: "Kernel?", CorrectAnswer: "2", Points: 5},
		{Type: model.QuestionTrueFalse, QuestionText: "Margins matter", CorrectAnswer: "true", Points: 5},
		{Type: model.QuestionShortAnswer, QuestionText: "Name the trick", CorrectAnswer: "kernel trick", Points: 5},
	}
	require.NoError(t, repository.NewAssessmentRepository(s.db).CreateWithQuestions(ctx, assessment, questions))

	student := &util.Claims{UserID: model.GenerateUUID(), Role: model.Student}
	s.assessment.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }

	attempt, err := s.assessment.SubmitAttempt(ctx, student, assessment.ID, &AttemptInput{Answers: map[string]string{
		questions[0].ID: "2",
		questions[1].ID: " TRUE ",
		questions[2].ID: "gradient trick",
	}})
	require.NoError(t, err)
	assert.Equal(t, 10, attempt.Score)
	assert.Equal(t, 15, attempt.TotalPossible)

	attempts, err := s.assessment.ListAttempts(ctx, student, assessment.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)

	view, err := s.assessment.Get(ctx, student, assessment.ID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 3)
	assert.Nil(t, view.Questions[0].CorrectAnswer)
	assert.Nil(t, view.Questions[0].Explanation)

	teacherView, err := s.assessment.Get(ctx, &util.Claims{Role: model.Teacher}, assessment.ID)
	require.NoError(t, err)
	require.NotNil(t, teacherView.Questions[0].CorrectAnswer)
	assert.Equal(t, "2", *teacherView.Questions[0].CorrectAnswer)

	adminView, err := s.assessment.Get(ctx, &util.Claims{Role: model.Admin}, assessment.ID)
	require.NoError(t, err)
	assert.NotNil(t, adminView.Questions[2].CorrectAnswer)

	anonymous, err := s.assessment.Get(ctx, nil, assessment.ID)
	require.NoError(t, err)
	assert.Nil(t, anonymous.Questions[1].CorrectAnswer)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	auth := NewAuthService(repository.NewProfileRepository(db), cfg)
	ctx := context.Background()

	profile, err := auth.Register(ctx, &RegisterInput{Email: " Sarah@Example.com ", Password: "secret1", FullName: "Sarah"})
	require.NoError(t, err)
	assert.Equal(t, "sarah@example.com", profile.Email)
	assert.Equal(t, model.Student, profile.Role)

	_, err = auth.Register(ctx, &RegisterInput{Email: "sarah@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, _, err = auth.Login(ctx, "sarah@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidPassword)

	token, logged, err := auth.Login(ctx, "SARAH@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, logged.ID)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.UserID)

	_, err = auth.GetProfile(ctx, model.GenerateUUID())
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
