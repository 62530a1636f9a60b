package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/course/domain"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindCourse(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) (*domain.Course, error) {
	var course domain.Course
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, title, status, created_at, updated_at
		 FROM courses WHERE org_id = ? AND id = ?`,
		orgID,
		courseID,
	).Scan(&course).Error
	if err != nil {
		return nil, err
	}
	if course.ID == 0 {
		return nil, nil
	}
	return &course, nil
}

func (r *repo) FindLesson(ctx context.Context, db *gorm.DB, orgID, lessonID snowflake.ID) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, course_id, title, position, created_at
		 FROM lessons WHERE org_id = ? AND id = ?`,
		orgID,
		lessonID,
	).Scan(&lesson).Error
	if err != nil {
		return nil, err
	}
	if lesson.ID == 0 {
		return nil, nil
	}
	return &lesson, nil
}

func (r *repo) ListLessonIDs(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Lesson{}).
		Where("org_id = ? AND course_id = ?", orgID, courseID).
		Order("position").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) CountCompletions(ctx context.Context, db *gorm.DB, memberID snowflake.ID, lessonIDs []snowflake.ID) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.LessonCompletion{}).
		Where("member_id = ? AND lesson_id IN ?", memberID, lessonIDs).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ListEnrolledMembers(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID) ([]*orgdomain.Member, error) {
	var members []*orgdomain.Member
	err := db.WithContext(ctx).
		Model(&orgdomain.Member{}).
		Joins("JOIN enrollments ON enrollments.member_id = organization_members.id").
		Where("enrollments.org_id = ? AND enrollments.course_id = ?", orgID, courseID).
		Order("organization_members.id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) InsertCourse(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Create(course).Error
}

func (r *repo) InsertLesson(ctx context.Context, db *gorm.DB, lesson *domain.Lesson) error {
	return db.WithContext(ctx).Create(lesson).Error
}

func (r *repo) SetCourseStatus(ctx context.Context, db *gorm.DB, orgID, courseID snowflake.ID, status domain.CourseStatus) error {
	return db.WithContext(ctx).
		Model(&domain.Course{}).
		Where("org_id = ? AND id = ?", orgID, courseID).
		Update("status", status).Error
}

func (r *repo) InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).Create(enrollment).Error
}

func (r *repo) InsertCompletion(ctx context.Context, db *gorm.DB, completion *domain.LessonCompletion) error {
	return db.WithContext(ctx).Create(completion).Error
}
