package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/automation/repository"
	"github.com/smallbiznis/academia/internal/clock"
	"github.com/smallbiznis/academia/internal/config"
	coursedomain "github.com/smallbiznis/academia/internal/course/domain"
	courserepository "github.com/smallbiznis/academia/internal/course/repository"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	orgrepository "github.com/smallbiznis/academia/internal/organization/repository"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type sentEmail struct {
	To      []string
	Subject string
	Body    string
}

type emailRecorder struct {
	mu       sync.Mutex
	sent     []sentEmail
	failNext int
}

func (p *emailRecorder) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext > 0 {
		p.failNext--
		return errors.New("smtp unavailable")
	}
	p.sent = append(p.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (p *emailRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *emailRecorder) last() sentEmail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[len(p.sent)-1]
}

type engineFixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	email *emailRecorder
	clock *clock.FakeClock
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.Member{},
		&coursedomain.Course{},
		&coursedomain.Lesson{},
		&coursedomain.Enrollment{},
		&coursedomain.LessonCompletion{},
		&domain.AutomationRule{},
		&domain.DeliveryRecord{},
	)
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	recorder := &emailRecorder{}
	fake := clock.NewFakeClock(time.Now().UTC())

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Cfg:     config.Config{LoginURLBase: "https://{slug}.academia.test/login"},
		GenID:   node,
		Clock:   fake,
		Rules:   repository.ProvideRules(),
		Ledger:  repository.ProvideLedger(),
		Roster:  orgrepository.Provide(),
		Courses: courserepository.Provide(),
		Email:   recorder,
	})

	return &engineFixture{svc: svc, db: db, node: node, email: recorder, clock: fake}
}

func (f *engineFixture) seedOrg(t *testing.T, slug string) *orgdomain.Organization {
	t.Helper()
	org := &orgdomain.Organization{
		ID:       f.node.Generate(),
		Name:     "Main",
		Slug:     slug,
		Metadata: datatypes.JSONMap{},
	}
	assert.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *engineFixture) seedMember(t *testing.T, orgID snowflake.ID, email, name string) *orgdomain.Member {
	t.Helper()
	member := &orgdomain.Member{
		ID:          f.node.Generate(),
		OrgID:       orgID,
		Email:       email,
		DisplayName: name,
		Role:        orgdomain.RoleStudent,
	}
	assert.NoError(t, f.db.Create(member).Error)
	return member
}

func (f *engineFixture) seedCourse(t *testing.T, orgID snowflake.ID, title string, lessons int) (*coursedomain.Course, []*coursedomain.Lesson) {
	t.Helper()
	course := &coursedomain.Course{
		ID:     f.node.Generate(),
		OrgID:  orgID,
		Title:  title,
		Status: coursedomain.CourseStatusPublished,
	}
	assert.NoError(t, f.db.Create(course).Error)

	out := make([]*coursedomain.Lesson, 0, lessons)
	for i := 0; i < lessons; i++ {
		lesson := &coursedomain.Lesson{
			ID:       f.node.Generate(),
			OrgID:    orgID,
			CourseID: course.ID,
			Title:    "Lesson",
			Position: i + 1,
		}
		assert.NoError(t, f.db.Create(lesson).Error)
		out = append(out, lesson)
	}
	return course, out
}

func (f *engineFixture) completeLesson(t *testing.T, orgID, memberID, lessonID snowflake.ID) {
	t.Helper()
	assert.NoError(t, f.db.Create(&coursedomain.LessonCompletion{
		ID:       f.node.Generate(),
		OrgID:    orgID,
		MemberID: memberID,
		LessonID: lessonID,
	}).Error)
}

func (f *engineFixture) ledgerCount(t *testing.T, ruleID snowflake.ID) int64 {
	t.Helper()
	var count int64
	assert.NoError(t, f.db.Model(&domain.DeliveryRecord{}).Where("rule_id = ?", ruleID).Count(&count).Error)
	return count
}

func orgCtx(orgID snowflake.ID) context.Context {
	return orgcontext.WithOrgID(context.Background(), orgID)
}

func TestFire_LessonCompletedDelivery(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")
	course, lessons := f.seedCourse(t, org.ID, "Intro", 1)

	rule, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "lesson_completed",
		LessonID:     lessons[0].ID.String(),
		EmailSubject: "Nice work on {{lesson_name}}",
		EmailBody:    "Hi {{name}}, you finished {{lesson_name}} in {{course_name}}. Keep going at {{login_url}}.",
		Enabled:      true,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerLessonCompleted,
		OrgID:    org.ID,
		MemberID: member.ID,
		CourseID: course.ID,
		LessonID: lessons[0].ID,
	})

	assert.Equal(t, 1, outcome.Evaluated)
	assert.Equal(t, 1, outcome.Matched)
	assert.Equal(t, 1, outcome.Sent)
	assert.Equal(t, 1, f.email.count())

	sent := f.email.last()
	assert.Equal(t, []string{"ada@example.com"}, sent.To)
	assert.Equal(t, "Nice work on Lesson", sent.Subject)
	assert.Contains(t, sent.Body, "Hi Ada")
	assert.Contains(t, sent.Body, "Intro")
	assert.Contains(t, sent.Body, "https://main.academia.test/login")
	assert.Equal(t, int64(1), f.ledgerCount(t, rule.ID))
}

func TestFire_AtMostOncePerRuleAndMember(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")
	course, lessons := f.seedCourse(t, org.ID, "Intro", 1)

	rule, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "lesson_completed",
		LessonID:     lessons[0].ID.String(),
		EmailSubject: "Done",
		EmailBody:    "Done",
		Enabled:      true,
	})
	assert.NoError(t, err)

	event := domain.Event{
		Type:     domain.TriggerLessonCompleted,
		OrgID:    org.ID,
		MemberID: member.ID,
		CourseID: course.ID,
		LessonID: lessons[0].ID,
	}

	first := f.svc.Fire(context.Background(), event)
	second := f.svc.Fire(context.Background(), event)

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, int64(1), f.ledgerCount(t, rule.ID))
}

func TestFire_ConcurrentDuplicateEventsSingleDelivery(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")

	rule, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "Welcome",
		EmailBody:    "Welcome",
		Enabled:      true,
	})
	assert.NoError(t, err)

	event := domain.Event{Type: domain.TriggerNewUser, OrgID: org.ID, MemberID: member.ID}

	const workers = 8
	outcomes := make([]domain.FireOutcome, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcomes[i] = f.svc.Fire(context.Background(), event)
		}(i)
	}
	close(start)
	wg.Wait()

	// Workers that slip past the Exists precheck together fall through to
	// the unique index on (rule_id, member_id): one insert wins, the rest
	// count as skipped. The ledger, not the precheck, is the contract.
	sent := 0
	for _, out := range outcomes {
		sent += out.Sent
		assert.Equal(t, 0, out.Failed)
	}
	assert.Equal(t, 1, sent)
	assert.Equal(t, int64(1), f.ledgerCount(t, rule.ID))

	after := f.svc.Fire(context.Background(), event)
	assert.Equal(t, 0, after.Sent)
	assert.Equal(t, 1, after.Skipped)
	assert.Equal(t, int64(1), f.ledgerCount(t, rule.ID))
}

func TestFire_CourseCompletedRequiresAllLessons(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")
	course, lessons := f.seedCourse(t, org.ID, "Deep Dive", 3)

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "course_completed",
		CourseID:     course.ID.String(),
		EmailSubject: "You finished {{course_name}}",
		EmailBody:    "Congratulations {{name}}!",
		Enabled:      true,
	})
	assert.NoError(t, err)

	event := domain.Event{
		Type:     domain.TriggerCourseCompleted,
		OrgID:    org.ID,
		MemberID: member.ID,
		CourseID: course.ID,
	}

	f.completeLesson(t, org.ID, member.ID, lessons[0].ID)
	f.completeLesson(t, org.ID, member.ID, lessons[1].ID)

	partial := f.svc.Fire(context.Background(), event)
	assert.Equal(t, 1, partial.Evaluated)
	assert.Equal(t, 0, partial.Matched)
	assert.Equal(t, 0, f.email.count())

	f.completeLesson(t, org.ID, member.ID, lessons[2].ID)

	full := f.svc.Fire(context.Background(), event)
	assert.Equal(t, 1, full.Matched)
	assert.Equal(t, 1, full.Sent)
	assert.Equal(t, "You finished Deep Dive", f.email.last().Subject)
}

func TestFire_EmptyCourseNeverCompletes(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")
	course, _ := f.seedCourse(t, org.ID, "Empty", 0)

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "course_completed",
		CourseID:     course.ID.String(),
		EmailSubject: "Done",
		EmailBody:    "Done",
		Enabled:      true,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerCourseCompleted,
		OrgID:    org.ID,
		MemberID: member.ID,
		CourseID: course.ID,
	})

	assert.Equal(t, 1, outcome.Evaluated)
	assert.Equal(t, 0, outcome.Matched)
	assert.Equal(t, 0, f.email.count())
}

func TestFire_EmailFailureLeavesRuleEligible(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")

	rule, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "Welcome {{name}}",
		EmailBody:    "Welcome!",
		Enabled:      true,
	})
	assert.NoError(t, err)

	event := domain.Event{Type: domain.TriggerNewUser, OrgID: org.ID, MemberID: member.ID}

	f.email.failNext = 1
	failed := f.svc.Fire(context.Background(), event)
	assert.Equal(t, 1, failed.Failed)
	assert.Equal(t, 0, failed.Sent)
	assert.Equal(t, int64(0), f.ledgerCount(t, rule.ID))

	retried := f.svc.Fire(context.Background(), event)
	assert.Equal(t, 1, retried.Sent)
	assert.Equal(t, int64(1), f.ledgerCount(t, rule.ID))
}

func TestFire_MalformedConfigSkipsOnlyThatRule(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")
	course, _ := f.seedCourse(t, org.ID, "Intro", 1)

	// Stored directly to bypass create-time validation, like a row written
	// by an older release.
	broken := &domain.AutomationRule{
		ID:            f.node.Generate(),
		OrgID:         org.ID,
		TriggerType:   domain.TriggerCourseEnrolled,
		TriggerConfig: datatypes.JSON([]byte(`{"course_id":"not-a-snowflake"}`)),
		EmailSubject:  "Broken",
		EmailBody:     "Broken",
		Enabled:       true,
	}
	assert.NoError(t, f.db.Create(broken).Error)

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "course_enrolled",
		CourseID:     course.ID.String(),
		EmailSubject: "Welcome to {{course_name}}",
		EmailBody:    "Enjoy!",
		Enabled:      true,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerCourseEnrolled,
		OrgID:    org.ID,
		MemberID: member.ID,
		CourseID: course.ID,
	})

	assert.Equal(t, 2, outcome.Evaluated)
	assert.Equal(t, 1, outcome.Sent)
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, "Welcome to Intro", f.email.last().Subject)
}

func TestFire_CrossTenantIsolation(t *testing.T) {
	f := newEngineFixture(t)
	orgA := f.seedOrg(t, "org-a")
	orgB := f.seedOrg(t, "org-b")
	memberA := f.seedMember(t, orgA.ID, "ada@example.com", "Ada")

	_, err := f.svc.CreateRule(orgCtx(orgB.ID), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "Welcome",
		EmailBody:    "Welcome",
		Enabled:      true,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerNewUser,
		OrgID:    orgA.ID,
		MemberID: memberA.ID,
	})

	assert.Equal(t, 0, outcome.Evaluated)
	assert.Equal(t, 0, f.email.count())
}

func TestFire_DisabledRuleIgnored(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "Welcome",
		EmailBody:    "Welcome",
		Enabled:      false,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerNewUser,
		OrgID:    org.ID,
		MemberID: member.ID,
	})

	assert.Equal(t, 0, outcome.Evaluated)
	assert.Equal(t, 0, f.email.count())
}

func TestFire_InactiveDaysThresholdReverified(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")
	member := f.seedMember(t, org.ID, "ada@example.com", "Ada")

	lastActive := f.clock.Now().Add(-10 * 24 * time.Hour)
	assert.NoError(t, f.db.Model(&orgdomain.Member{}).
		Where("id = ?", member.ID).
		Update("last_active_at", lastActive).Error)

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "inactive_days",
		Days:         7,
		EmailSubject: "We miss you",
		EmailBody:    "Come back, {{name}}. {{days_inactive}} days is too long.",
		Enabled:      true,
	})
	assert.NoError(t, err)
	_, err = f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "inactive_days",
		Days:         30,
		EmailSubject: "Final call",
		EmailBody:    "Still there?",
		Enabled:      true,
	})
	assert.NoError(t, err)

	outcome := f.svc.Fire(context.Background(), domain.Event{
		Type:     domain.TriggerInactiveDays,
		OrgID:    org.ID,
		MemberID: member.ID,
	})

	// Only the 7-day rule matches at 10 days idle; the 30-day rule waits.
	assert.Equal(t, 2, outcome.Evaluated)
	assert.Equal(t, 1, outcome.Matched)
	assert.Equal(t, 1, outcome.Sent)
	assert.Equal(t, "We miss you", f.email.last().Subject)
	assert.Contains(t, f.email.last().Body, "10 days")
}

func TestCreateRule_Validation(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")

	_, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "unknown_trigger",
		EmailSubject: "x",
		EmailBody:    "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTriggerType)

	_, err = f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType: "new_user",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "inactive_days",
		Days:         0,
		EmailSubject: "x",
		EmailBody:    "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTriggerConfig)

	_, err = f.svc.CreateRule(context.Background(), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "x",
		EmailBody:    "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestSetRuleEnabled(t *testing.T) {
	f := newEngineFixture(t)
	org := f.seedOrg(t, "main")

	rule, err := f.svc.CreateRule(orgCtx(org.ID), domain.CreateRuleRequest{
		TriggerType:  "new_user",
		EmailSubject: "Welcome",
		EmailBody:    "Welcome",
		Enabled:      true,
	})
	assert.NoError(t, err)

	updated, err := f.svc.SetRuleEnabled(orgCtx(org.ID), domain.SetRuleEnabledRequest{
		ID:      rule.ID.String(),
		Enabled: false,
	})
	assert.NoError(t, err)
	assert.False(t, updated.Enabled)

	_, err = f.svc.SetRuleEnabled(orgCtx(org.ID), domain.SetRuleEnabledRequest{
		ID:      f.node.Generate().String(),
		Enabled: true,
	})
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}
