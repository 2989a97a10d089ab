// Package seed 写入示例课程，供本地演示和前端联调使用
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed sample_course.yaml
var sampleCourse []byte

type Sample struct {
	Instructor struct {
		Email    string `yaml:"email"`
		FullName string `yaml:"full_name"`
		Password string `yaml:"password"`
	} `yaml:"instructor"`
	Course struct {
		Title       string         `yaml:"title"`
		Description string         `yaml:"description"`
		CLOs        []sampleCLO    `yaml:"clos"`
		Lessons     []sampleLesson `yaml:"lessons"`
	} `yaml:"course"`
}

type sampleCLO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BloomLevel  string `yaml:"bloom_level"`
}

type sampleLesson struct {
	Title             string   `yaml:"title"`
	SessionNo         int      `yaml:"session_no"`
	CLO               *int     `yaml:"clo"`
	EstimatedDuration string   `yaml:"estimated_duration"`
	Objectives        []string `yaml:"objectives"`
	Resources         []struct {
		Type     string `yaml:"type"`
		Title    string `yaml:"title"`
		URL      string `yaml:"url"`
		Duration string `yaml:"duration"`
	} `yaml:"resources"`
	Activities []struct {
		Type          string `yaml:"type"`
		Title         string `yaml:"title"`
		EstimatedTime string `yaml:"estimated_time"`
	} `yaml:"activities"`
	Quiz *sampleQuiz `yaml:"quiz"`
}

type sampleQuiz struct {
	Title             string `yaml:"title"`
	EstimatedDuration string `yaml:"estimated_duration"`
	Questions         []struct {
		Type          string   `yaml:"type"`
		Question      string   `yaml:"question"`
		Options       []string `yaml:"options"`
		CorrectAnswer string   `yaml:"correct_answer"`
		BloomLevel    string   `yaml:"bloom_level"`
		Explanation   string   `yaml:"explanation"`
	} `yaml:"questions"`
}

// Parse 解析示例课程 YAML
func Parse(data []byte) (*Sample, error) {
	var s Sample
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sample course: %w", err)
	}
	if s.Course.Title == "" || s.Instructor.Email == "" {
		return nil, errors.New("sample course requires course.title and instructor.email")
	}
	for i, l := range s.Course.Lessons {
		if l.SessionNo < 1 {
			return nil, fmt.Errorf("lesson %d: session_no must be >= 1", i)
		}
		if l.CLO != nil && (*l.CLO < 0 || *l.CLO >= len(s.Course.CLOs)) {
			return nil, fmt.Errorf("lesson %d: clo index %d out of range", i, *l.CLO)
		}
	}
	return &s, nil
}

// Run 写入内置的机器学习示例课程
func Run(ctx context.Context, db *gorm.DB) (*model.Course, error) {
	s, err := Parse(sampleCourse)
	if err != nil {
		return nil, err
	}
	return Load(ctx, db, s)
}

// Load 写入示例课程；讲师名下已有同名课程时直接返回该课程
func Load(ctx context.Context, db *gorm.DB, s *Sample) (*model.Course, error) {
	var course *model.Course
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := repository.NewProfileRepository(tx)
		courses := repository.NewCourseRepository(tx)

		instructor, err := profiles.FindByEmail(ctx, s.Instructor.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(s.Instructor.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			instructor = &model.Profile{
				Email:        s.Instructor.Email,
				FullName:     s.Instructor.FullName,
				Role:         model.Teacher,
				PasswordHash: string(hash),
			}
			if err := profiles.Create(ctx, instructor); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		existing, err := courses.FindByInstructor(ctx, instructor.ID)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Title == s.Course.Title {
				course = &existing[i]
				logger.Log.Info("Sample course already present", zap.String("course_id", course.ID))
				return nil
			}
		}

		course, err = create(ctx, tx, instructor, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func create(ctx context.Context, tx *gorm.DB, instructor *model.Profile, s *Sample) (*model.Course, error) {
	courses := repository.NewCourseRepository(tx)
	clos := repository.NewCLORepository(tx)
	lessons := repository.NewLessonRepository(tx)
	assessments := repository.NewAssessmentRepository(tx)

	course := &model.Course{
		Title:        s.Course.Title,
		Description:  util.StrPtr(s.Course.Description),
		InstructorID: &instructor.ID,
	}
	if err := courses.Create(ctx, course); err != nil {
		return nil, err
	}

	cloIDs := make([]string, 0, len(s.Course.CLOs))
	for i, c := range s.Course.CLOs {
		clo := &model.CLO{
			CourseID:    course.ID,
			Title:       c.Title,
			Description: c.Description,
			BloomLevel:  util.StrPtr(c.BloomLevel),
			OrderIndex:  i,
		}
		if err := clos.Create(ctx, clo); err != nil {
			return nil, err
		}
		cloIDs = append(cloIDs, clo.ID)
	}

	for _, l := range s.Course.Lessons {
		lesson := &model.Lesson{
			CourseID:          course.ID,
			Title:             l.Title,
			SessionNo:         l.SessionNo,
			EstimatedDuration: l.EstimatedDuration,
		}
		if l.CLO != nil {
			lesson.CLOID = &cloIDs[*l.CLO]
		}
		lesson.SetObjectives(l.Objectives)

		resources := make([]model.Resource, 0, len(l.Resources))
		for _, r := range l.Resources {
			resources = append(resources, model.Resource{
				Type:     model.ResourceType(r.Type),
				Title:    r.Title,
				URL:      r.URL,
				Duration: util.StrPtr(r.Duration),
			})
		}
		activities := make([]model.Activity, 0, len(l.Activities))
		for _, a := range l.Activities {
			activities = append(activities, model.Activity{
				Type:          a.Type,
				Title:         a.Title,
				EstimatedTime: util.StrPtr(a.EstimatedTime),
			})
		}
		if err := lessons.CreateWithChildren(ctx, lesson, resources, activities); err != nil {
			return nil, err
		}

		if l.Quiz != nil {
			if err := createQuiz(ctx, assessments, lesson.ID, l.Quiz); err != nil {
				return nil, err
			}
		}
	}

	logger.Log.Info("Sample course seeded",
		zap.String("course_id", course.ID),
		zap.Int("lessons", len(s.Course.Lessons)),
	)
	return course, nil
}

func createQuiz(ctx context.Context, repo *repository.AssessmentRepository, lessonID string, q *sampleQuiz) error {
	const points = 5

	questions := make([]model.Question, 0, len(q.Questions))
	for _, item := range q.Questions {
		var options datatypes.JSON
		if len(item.Options) > 0 {
			data, err := json.Marshal(item.Options)
			if err != nil {
				return err
			}
			options = datatypes.JSON(data)
		}
		questions = append(questions, model.Question{
			Type:          item.Type,
			QuestionText:  item.Question,
			Options:       options,
			CorrectAnswer: item.CorrectAnswer,
			BloomLevel:    util.StrPtr(item.BloomLevel),
			Explanation:   util.StrPtr(item.Explanation),
			Points:        points,
		})
	}

	assessment := &model.Assessment{
		LessonID:          &lessonID,
		Title:             q.Title,
		EstimatedDuration: util.StrPtr(q.EstimatedDuration),
		TotalPoints:       len(questions) * points,
	}
	return repo.CreateWithQuestions(ctx, assessment, questions)
}
