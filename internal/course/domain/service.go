package domain

import (
	"context"
	"errors"
)

type CreateCourseRequest struct {
	Title string
}

type AddLessonRequest struct {
	CourseID string
	Title    string
	Position int
	ActorID  string
}

type PublishCourseRequest struct {
	CourseID string
	ActorID  string
}

type EnrollRequest struct {
	CourseID string
	MemberID string
}

type CompleteLessonRequest struct {
	LessonID string
	MemberID string
}

// CompleteLessonResponse reports whether the completion row was new;
// automation firing happens either way and dedupes in the ledger.
type CompleteLessonResponse struct {
	AlreadyCompleted bool `json:"already_completed"`
}

// Service carries the course-progress business actions that feed the
// automation dispatcher and the notification fan-out.
type Service interface {
	CreateCourse(ctx context.Context, req CreateCourseRequest) (Course, error)
	AddLesson(ctx context.Context, req AddLessonRequest) (Lesson, error)
	PublishCourse(ctx context.Context, req PublishCourseRequest) (Course, error)
	Enroll(ctx context.Context, req EnrollRequest) (Enrollment, error)
	CompleteLesson(ctx context.Context, req CompleteLessonRequest) (CompleteLessonResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidID           = errors.New("invalid_id")
	ErrCourseNotFound      = errors.New("course_not_found")
	ErrLessonNotFound      = errors.New("lesson_not_found")
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrAlreadyEnrolled     = errors.New("already_enrolled")
)
