package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Lesson 课时，属于某门课程的一个 session
// swagger:model Lesson
type Lesson struct {
	UUIDBase
	CourseID           string         `gorm:"type:varchar(36);index;not null" json:"course_id"`
	CLOID              *string        `gorm:"column:clo_id;type:varchar(36);index" json:"clo_id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	SessionNo          int            `gorm:"not null;index" json:"session_no"`
	EstimatedDuration  string         `gorm:"size:50" json:"estimated_duration"`
	LearningObjectives datatypes.JSON `json:"learning_objectives"`
	Resources          []Resource     `gorm:"foreignKey:LessonID" json:"resources,omitempty"`
	Activities         []Activity     `gorm:"foreignKey:LessonID" json:"activities,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Objectives 解析 learning_objectives 列
func (l *Lesson) Objectives() []string {
	var out []string
	if len(l.LearningObjectives) == 0 {
		return out
	}
	_ = json.Unmarshal(l.LearningObjectives, &out)
	return out
}

func (l *Lesson) SetObjectives(objectives []string) {
	if objectives == nil {
		objectives = []string{}
	}
	data, _ := json.Marshal(objectives)
	l.LearningObjectives = datatypes.JSON(data)
}
