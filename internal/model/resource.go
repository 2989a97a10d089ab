package model

type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourcePDF      ResourceType = "pdf"
	ResourceReading  ResourceType = "reading"
	ResourceExternal ResourceType = "external"
	ResourceLab      ResourceType = "lab"
)

// Resource 课时资源
// swagger:model Resource
type Resource struct {
	UUIDBase
	LessonID    string       `gorm:"type:varchar(36);index;not null" json:"lesson_id"`
	Type        ResourceType `gorm:"size:30;not null" json:"type"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description *string      `gorm:"type:text" json:"description"`
	URL         string       `gorm:"size:1024;not null" json:"url"`
	Duration    *string      `gorm:"size:50" json:"duration"`
	OrderIndex  int          `gorm:"default:0" json:"order_index"`
}

func (Resource) TableName() string {
	return "resources"
}

// Activity 课时学习活动
// swagger:model Activity
type Activity struct {
	UUIDBase
	LessonID      string  `gorm:"type:varchar(36);index;not null" json:"lesson_id"`
	Type          string  `gorm:"size:30;not null" json:"type"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Description   *string `gorm:"type:text" json:"description"`
	EstimatedTime *string `gorm:"size:50" json:"estimated_time"`
	OrderIndex    int     `gorm:"default:0" json:"order_index"`
}

func (Activity) TableName() string {
	return "activities"
}
