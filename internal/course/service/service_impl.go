package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/course/domain"
	notificationdomain "github.com/smallbiznis/academia/internal/notification/domain"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"github.com/smallbiznis/academia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Roster        orgdomain.Repository
	Automation    automationdomain.Service
	Notifications notificationdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	roster        orgdomain.Repository
	automation    automationdomain.Service
	notifications notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("course.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		roster:        p.Roster,
		automation:    p.Automation,
		notifications: p.Notifications,
	}
}

func (s *Service) CreateCourse(ctx context.Context, req domain.CreateCourseRequest) (domain.Course, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Course{}, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Course{}, domain.ErrInvalidTitle
	}

	now := time.Now().UTC()
	course := domain.Course{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Title:     title,
		Status:    domain.CourseStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCourse(ctx, s.db, &course); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (s *Service) AddLesson(ctx context.Context, req domain.AddLessonRequest) (domain.Lesson, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Lesson{}, domain.ErrInvalidOrganization
	}

	courseID, err := parseID(req.CourseID)
	if err != nil {
		return domain.Lesson{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Lesson{}, domain.ErrInvalidTitle
	}

	course, err := s.repo.FindCourse(ctx, s.db, orgID, courseID)
	if err != nil {
		return domain.Lesson{}, err
	}
	if course == nil {
		return domain.Lesson{}, domain.ErrCourseNotFound
	}

	lesson := domain.Lesson{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		CourseID:  courseID,
		Title:     title,
		Position:  req.Position,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertLesson(ctx, s.db, &lesson); err != nil {
		return domain.Lesson{}, err
	}

	// Content added to an already-published course is broadcast to the
	// course audience; drafts stay silent until publish.
	if course.Status == domain.CourseStatusPublished {
		s.notifications.Notify(ctx, notificationdomain.NotifyRequest{
			OrgID:    orgID,
			Scope:    notificationdomain.Scope{Kind: notificationdomain.ScopeCourse, CourseID: courseID},
			Type:     "lesson_added",
			Title:    course.Title,
			Content:  "New lesson: " + title,
			Link:     "/courses/" + courseID.String(),
			ActorID:  parseOptionalID(req.ActorID),
			TargetID: lesson.ID,
		})
	}

	return lesson, nil
}

func (s *Service) PublishCourse(ctx context.Context, req domain.PublishCourseRequest) (domain.Course, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Course{}, domain.ErrInvalidOrganization
	}

	courseID, err := parseID(req.CourseID)
	if err != nil {
		return domain.Course{}, err
	}

	course, err := s.repo.FindCourse(ctx, s.db, orgID, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if course == nil {
		return domain.Course{}, domain.ErrCourseNotFound
	}

	if err := s.repo.SetCourseStatus(ctx, s.db, orgID, courseID, domain.CourseStatusPublished); err != nil {
		return domain.Course{}, err
	}
	course.Status = domain.CourseStatusPublished

	s.notifications.Notify(ctx, notificationdomain.NotifyRequest{
		OrgID:    orgID,
		Scope:    notificationdomain.Scope{Kind: notificationdomain.ScopeOrg},
		Type:     "course_published",
		Title:    course.Title,
		Content:  "A new course is available: " + course.Title,
		Link:     "/courses/" + courseID.String(),
		ActorID:  parseOptionalID(req.ActorID),
		TargetID: courseID,
	})

	return *course, nil
}

func (s *Service) Enroll(ctx context.Context, req domain.EnrollRequest) (domain.Enrollment, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Enrollment{}, domain.ErrInvalidOrganization
	}

	courseID, err := parseID(req.CourseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.Enrollment{}, err
	}

	course, err := s.repo.FindCourse(ctx, s.db, orgID, courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if course == nil {
		return domain.Enrollment{}, domain.ErrCourseNotFound
	}
	member, err := s.roster.FindMember(ctx, s.db, orgID, memberID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if member == nil {
		return domain.Enrollment{}, domain.ErrMemberNotFound
	}

	enrollment := domain.Enrollment{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		CourseID:  courseID,
		MemberID:  memberID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertEnrollment(ctx, s.db, &enrollment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Enrollment{}, domain.ErrAlreadyEnrolled
		}
		return domain.Enrollment{}, err
	}

	s.automation.Fire(ctx, automationdomain.Event{
		Type:     automationdomain.TriggerCourseEnrolled,
		OrgID:    orgID,
		MemberID: memberID,
		CourseID: courseID,
	})

	return enrollment, nil
}

// CompleteLesson records progress and reports the lesson and course
// completion events. Repeated completions are idempotent: the completion
// row is unique per (member, lesson) and the delivery ledger dedupes any
// rule sends downstream.
func (s *Service) CompleteLesson(ctx context.Context, req domain.CompleteLessonRequest) (domain.CompleteLessonResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.CompleteLessonResponse{}, domain.ErrInvalidOrganization
	}

	lessonID, err := parseID(req.LessonID)
	if err != nil {
		return domain.CompleteLessonResponse{}, err
	}
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.CompleteLessonResponse{}, err
	}

	lesson, err := s.repo.FindLesson(ctx, s.db, orgID, lessonID)
	if err != nil {
		return domain.CompleteLessonResponse{}, err
	}
	if lesson == nil {
		return domain.CompleteLessonResponse{}, domain.ErrLessonNotFound
	}
	member, err := s.roster.FindMember(ctx, s.db, orgID, memberID)
	if err != nil {
		return domain.CompleteLessonResponse{}, err
	}
	if member == nil {
		return domain.CompleteLessonResponse{}, domain.ErrMemberNotFound
	}

	resp := domain.CompleteLessonResponse{}
	completion := domain.LessonCompletion{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		MemberID:  memberID,
		LessonID:  lessonID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertCompletion(ctx, s.db, &completion); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return domain.CompleteLessonResponse{}, err
		}
		resp.AlreadyCompleted = true
	}

	if err := s.roster.TouchLastActive(ctx, s.db, orgID, memberID); err != nil {
		s.log.Warn("last active update failed", zap.Error(err))
	}

	s.automation.Fire(ctx, automationdomain.Event{
		Type:     automationdomain.TriggerLessonCompleted,
		OrgID:    orgID,
		MemberID: memberID,
		CourseID: lesson.CourseID,
		LessonID: lessonID,
	})
	s.automation.Fire(ctx, automationdomain.Event{
		Type:     automationdomain.TriggerCourseCompleted,
		OrgID:    orgID,
		MemberID: memberID,
		CourseID: lesson.CourseID,
	})

	return resp, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseOptionalID(value string) snowflake.ID {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return id
}
