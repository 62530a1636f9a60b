package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/academia/internal/automation/domain"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
)

// evaluate decides whether a rule's trigger config matches the event and
// collects the trigger-specific template variables. An error means the
// verification itself failed and the rule must not fire.
func (s *Service) evaluate(ctx context.Context, event domain.Event, member *orgdomain.Member, trigger domain.TriggerConfig) (bool, map[string]string, error) {
	switch cfg := trigger.(type) {
	case domain.NewUserTrigger:
		return true, nil, nil

	case domain.InactiveDaysTrigger:
		// Re-verify against the roster at fire time; the scanner fires for
		// the loosest threshold and stricter rules must not piggyback.
		last := member.CreatedAt
		if member.LastActiveAt != nil {
			last = *member.LastActiveAt
		}
		idle := s.clock.Now().Sub(last)
		if idle < time.Duration(cfg.Days)*24*time.Hour {
			return false, nil, nil
		}
		return true, map[string]string{
			"days_inactive": strconv.Itoa(int(idle.Hours() / 24)),
		}, nil

	case domain.CourseEnrolledTrigger:
		if cfg.CourseID != event.CourseID {
			return false, nil, nil
		}
		course, err := s.courses.FindCourse(ctx, s.db, event.OrgID, cfg.CourseID)
		if err != nil {
			return false, nil, err
		}
		if course == nil {
			return false, nil, nil
		}
		return true, map[string]string{"course_name": course.Title}, nil

	case domain.LessonCompletedTrigger:
		if cfg.LessonID != event.LessonID {
			return false, nil, nil
		}
		lesson, err := s.courses.FindLesson(ctx, s.db, event.OrgID, cfg.LessonID)
		if err != nil {
			return false, nil, err
		}
		if lesson == nil {
			return false, nil, nil
		}
		vars := map[string]string{"lesson_name": lesson.Title}
		course, err := s.courses.FindCourse(ctx, s.db, event.OrgID, lesson.CourseID)
		if err != nil {
			return false, nil, err
		}
		if course != nil {
			vars["course_name"] = course.Title
		}
		return true, vars, nil

	case domain.CourseCompletedTrigger:
		if cfg.CourseID != event.CourseID {
			return false, nil, nil
		}
		lessonIDs, err := s.courses.ListLessonIDs(ctx, s.db, event.OrgID, cfg.CourseID)
		if err != nil {
			return false, nil, err
		}
		// A course with no lessons is never completable.
		if len(lessonIDs) == 0 {
			return false, nil, nil
		}
		completed, err := s.courses.CountCompletions(ctx, s.db, member.ID, lessonIDs)
		if err != nil {
			return false, nil, err
		}
		if completed != int64(len(lessonIDs)) {
			return false, nil, nil
		}
		course, err := s.courses.FindCourse(ctx, s.db, event.OrgID, cfg.CourseID)
		if err != nil {
			return false, nil, err
		}
		vars := map[string]string{}
		if course != nil {
			vars["course_name"] = course.Title
		}
		return true, vars, nil

	default:
		return false, nil, domain.ErrInvalidTriggerType
	}
}

// baseVars builds the variable bag every trigger produces.
func (s *Service) baseVars(member *orgdomain.Member, org *orgdomain.Organization) map[string]string {
	name := strings.TrimSpace(member.DisplayName)
	if name == "" {
		name = "there"
	}
	return map[string]string{
		"name":      name,
		"org_name":  org.Name,
		"login_url": s.cfg.LoginURL(org.Slug),
	}
}
