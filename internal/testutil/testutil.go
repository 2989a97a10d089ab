// Package testutil 提供测试用的内存数据库
package testutil

import (
	"testing"

	"course_studio_backend/internal/model"
	"course_studio_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 返回已迁移的 sqlite 内存库，外键生效；单连接保证所有查询落在同一个库上
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(":memory:")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedCourse 创建一名教师和一门课程
func SeedCourse(t *testing.T, db *gorm.DB) (*model.Profile, *model.Course) {
	t.Helper()

	teacher := &model.Profile{
		Email:        model.GenerateUUID() + "@example.com",
		FullName:     "Dr. Sarah Chen",
		Role:         model.Teacher,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(teacher).Error)

	course := &model.Course{Title: "Introduction to Machine Learning", InstructorID: &teacher.ID}
	require.NoError(t, db.Omit("CLOs", "Lessons", "Instructor").Create(course).Error)
	return teacher, course
}

// SeedLesson 在课程下创建一个课时
func SeedLesson(t *testing.T, db *gorm.DB, courseID string, sessionNo int, title string) *model.Lesson {
	t.Helper()

	lesson := &model.Lesson{CourseID: courseID, Title: title, SessionNo: sessionNo}
	lesson.SetObjectives([]string{"Understand " + title})
	require.NoError(t, db.Omit("Resources", "Activities").Create(lesson).Error)
	return lesson
}
