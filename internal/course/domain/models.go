// Package domain contains the course structure and progress models the
// automation engine reads. The course-progress subsystem owns the writes;
// the engine only verifies completion against them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
)

type Course struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	Title     string       `gorm:"type:text;not null" json:"title"`
	Status    CourseStatus `gorm:"type:text;not null;default:draft" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

type Lesson struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	CourseID  snowflake.ID `gorm:"not null;index" json:"course_id"`
	Title     string       `gorm:"type:text;not null" json:"title"`
	Position  int          `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Lesson) TableName() string { return "lessons" }

// Enrollment is membership of a Member in a Course.
type Enrollment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	CourseID  snowflake.ID `gorm:"not null;uniqueIndex:ux_enrollments_course_member,priority:1" json:"course_id"`
	MemberID  snowflake.ID `gorm:"not null;uniqueIndex:ux_enrollments_course_member,priority:2" json:"member_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Enrollment) TableName() string { return "enrollments" }

// LessonCompletion is proof a member finished a specific lesson.
// Unique on (member_id, lesson_id) so repeated completions are no-ops.
type LessonCompletion struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	MemberID  snowflake.ID `gorm:"not null;uniqueIndex:ux_completions_member_lesson,priority:1" json:"member_id"`
	LessonID  snowflake.ID `gorm:"not null;uniqueIndex:ux_completions_member_lesson,priority:2" json:"lesson_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LessonCompletion) TableName() string { return "lesson_completions" }
