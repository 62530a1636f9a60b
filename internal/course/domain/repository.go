package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"gorm.io/gorm"
)

// Repository exposes the course-structure reads the condition evaluator and
// recipient resolver depend on, plus the progress writes for the business
// actions that trigger automation.
type Repository interface {
	FindCourse(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) (*Course, error)
	FindLesson(ctx context.Context, db *gorm.DB, orgID, lessonID snowflake.ID) (*Lesson, error)
	ListLessonIDs(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) ([]snowflake.ID, error)
	CountCompletions(ctx context.Context, db *gorm.DB, memberID snowflake.ID, lessonIDs []snowflake.ID) (int64, error)
	ListEnrolledMembers(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) ([]*orgdomain.Member, error)

	InsertCourse(ctx context.Context, db *gorm.DB, course *Course) error
	InsertLesson(ctx context.Context, db *gorm.DB, lesson *Lesson) error
	SetCourseStatus(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID, status CourseStatus) error
	InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	InsertCompletion(ctx context.Context, db *gorm.DB, completion *LessonCompletion) error
}
