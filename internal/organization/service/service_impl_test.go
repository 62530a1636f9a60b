package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/organization/domain"
	"github.com/smallbiznis/academia/internal/organization/repository"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fireRecorder struct {
	mu     sync.Mutex
	events []automationdomain.Event
}

func (f *fireRecorder) Fire(ctx context.Context, event automationdomain.Event) automationdomain.FireOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return automationdomain.FireOutcome{}
}

func (f *fireRecorder) CreateRule(ctx context.Context, req automationdomain.CreateRuleRequest) (automationdomain.AutomationRule, error) {
	return automationdomain.AutomationRule{}, nil
}

func (f *fireRecorder) ListRules(ctx context.Context) ([]automationdomain.AutomationRule, error) {
	return nil, nil
}

func (f *fireRecorder) SetRuleEnabled(ctx context.Context, req automationdomain.SetRuleEnabledRequest) (automationdomain.AutomationRule, error) {
	return automationdomain.AutomationRule{}, nil
}

func (f *fireRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type memberFixture struct {
	svc   domain.Service
	db    *gorm.DB
	fires *fireRecorder
	org   *domain.Organization
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.Member{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fires := &fireRecorder{}
	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		Automation: fires,
	})

	org := &domain.Organization{ID: node.Generate(), Name: "Main", Slug: "main", Metadata: datatypes.JSONMap{}}
	assert.NoError(t, db.Create(org).Error)

	return &memberFixture{svc: svc, db: db, fires: fires, org: org}
}

func (f *memberFixture) ctx() context.Context {
	return orgcontext.WithOrgID(context.Background(), f.org.ID)
}

func TestCreateMember_FiresNewUserOnce(t *testing.T) {
	f := newMemberFixture(t)

	member, err := f.svc.CreateMember(f.ctx(), domain.CreateMemberRequest{
		Email: "  Ada@Example.COM ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "ada@example.com", member.Email)
	assert.Equal(t, "ada", member.DisplayName)
	assert.Equal(t, domain.RoleStudent, member.Role)

	assert.Equal(t, 1, f.fires.count())
	event := f.fires.events[0]
	assert.Equal(t, automationdomain.TriggerNewUser, event.Type)
	assert.Equal(t, f.org.ID, event.OrgID)
	assert.Equal(t, member.ID, event.MemberID)
}

func TestCreateMember_DuplicateEmailDoesNotFire(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.CreateMember(f.ctx(), domain.CreateMemberRequest{Email: "ada@example.com"})
	assert.NoError(t, err)

	_, err = f.svc.CreateMember(f.ctx(), domain.CreateMemberRequest{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Equal(t, 1, f.fires.count())
}

func TestCreateMember_Validation(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.CreateMember(f.ctx(), domain.CreateMemberRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.svc.CreateMember(f.ctx(), domain.CreateMemberRequest{Email: "a@example.com", Role: "janitor"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = f.svc.CreateMember(context.Background(), domain.CreateMemberRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	assert.Equal(t, 0, f.fires.count())
}
