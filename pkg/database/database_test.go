package database

import (
	"testing"

	"course_studio_backend/internal/config"
	"course_studio_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", SQLiteDSN(""))
	assert.Equal(t, "data/app.db?_foreign_keys=on", SQLiteDSN("data/app.db"))
	assert.Equal(t, "data/app.db?cache=shared&_foreign_keys=on", SQLiteDSN("data/app.db?cache=shared"))
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := Dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSQLiteEnforcesForeignKeys(t *testing.T) {
	dialector, err := Dialector(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))

	// 课程不存在时不能写入课时
	orphan := &model.Lesson{CourseID: model.GenerateUUID(), Title: "Orphan", SessionNo: 1}
	orphan.SetObjectives([]string{"none"})
	assert.Error(t, db.Omit("Resources", "Activities").Create(orphan).Error)

	course := &model.Course{Title: "Statistics"}
	require.NoError(t, db.Omit("CLOs", "Lessons", "Instructor").Create(course).Error)
	lesson := &model.Lesson{CourseID: course.ID, Title: "Sampling", SessionNo: 1}
	lesson.SetObjectives([]string{"Draw a sample"})
	assert.NoError(t, db.Omit("Resources", "Activities").Create(lesson).Error)
}
