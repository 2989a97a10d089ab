package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// Profile 用户资料，对应 profiles 表
// swagger:model Profile
type Profile struct {
	UUIDBase
	Email        string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string   `gorm:"size:255" json:"full_name"`
	Role         UserRole `gorm:"size:20;default:'student'" json:"role"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// CanTeach 教师和管理员可以查看答案解析
func (r UserRole) CanTeach() bool {
	return r == Teacher || r == Admin
}
