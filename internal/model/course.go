package model

// Course 课程
// swagger:model Course
type Course struct {
	UUIDBase
	Title        string   `gorm:"size:255;not null" json:"title"`
	Description  *string  `gorm:"type:text" json:"description"`
	InstructorID *string  `gorm:"type:varchar(36);index" json:"instructor_id"`
	Instructor   *Profile `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	CLOs         []CLO    `gorm:"foreignKey:CourseID" json:"clos,omitempty"`
	Lessons      []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CLO 课程学习目标 (Course Learning Objective)
// swagger:model CLO
type CLO struct {
	UUIDBase
	CourseID    string  `gorm:"type:varchar(36);index;not null" json:"course_id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text;not null" json:"description"`
	BloomLevel  *string `gorm:"size:50" json:"bloom_level"`
	OrderIndex  int     `gorm:"default:0" json:"order_index"`
}

func (CLO) TableName() string {
	return "clos"
}
