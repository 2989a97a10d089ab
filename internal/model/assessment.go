package model

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment 课时测验
// swagger:model Assessment
type Assessment struct {
	UUIDBase
	LessonID          *string    `gorm:"type:varchar(36);index" json:"lesson_id"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	EstimatedDuration *string    `gorm:"size:50" json:"estimated_duration"`
	TotalPoints       int        `gorm:"default:0" json:"total_points"`
	Questions         []Question `gorm:"foreignKey:AssessmentID" json:"questions,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionTrueFalse      = "true-false"
	QuestionShortAnswer    = "short-answer"
)

// Question 测验题目，options 为 JSON 数组
// swagger:model Question
type Question struct {
	UUIDBase
	AssessmentID  string         `gorm:"type:varchar(36);index;not null" json:"assessment_id"`
	Type          string         `gorm:"size:30;not null" json:"type"`
	QuestionText  string         `gorm:"type:text;not null" json:"question_text"`
	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	BloomLevel    *string        `gorm:"size:50" json:"bloom_level"`
	Explanation   *string        `gorm:"type:text" json:"explanation"`
	Points        int            `gorm:"default:5" json:"points"`
	OrderIndex    int            `gorm:"default:0" json:"order_index"`
}

func (Question) TableName() string {
	return "questions"
}

// Attempt 学生作答记录
// swagger:model Attempt
type Attempt struct {
	UUIDBase
	AssessmentID  string         `gorm:"type:varchar(36);index;not null" json:"assessment_id"`
	StudentID     string         `gorm:"type:varchar(36);index;not null" json:"student_id"`
	Answers       datatypes.JSON `gorm:"not null" json:"answers"`
	Score         int            `gorm:"default:0" json:"score"`
	TotalPossible int            `gorm:"default:0" json:"total_possible"`
	StartedAt     *time.Time     `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
}

func (Attempt) TableName() string {
	return "attempts"
}
