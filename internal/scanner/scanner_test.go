package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	automationrepository "github.com/smallbiznis/academia/internal/automation/repository"
	"github.com/smallbiznis/academia/internal/clock"
	"github.com/smallbiznis/academia/internal/config"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	orgrepository "github.com/smallbiznis/academia/internal/organization/repository"
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
	return automationdomain.FireOutcome{Evaluated: 1, Matched: 1, Sent: 1}
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

func (f *fireRecorder) firedMembers() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]snowflake.ID, 0, len(f.events))
	for _, event := range f.events {
		out = append(out, event.MemberID)
	}
	return out
}

func TestScanner_RunOnce(t *testing.T) {
	// The sweep is cross-tenant by design, so each test gets its own
	// named in-memory database.
	db, err := gorm.Open(sqlite.Open("file:scanner_run_once?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.Member{},
		&automationdomain.AutomationRule{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	recorder := &fireRecorder{}

	scanner, err := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Cfg:        config.Config{Scanner: config.ScannerConfig{Enabled: true, RunInterval: time.Hour, BatchSize: 50}},
		Clock:      fake,
		Rules:      automationrepository.ProvideRules(),
		Roster:     orgrepository.Provide(),
		Automation: recorder,
	})
	assert.NoError(t, err)

	org := &orgdomain.Organization{ID: node.Generate(), Name: "Main", Slug: "main", Metadata: datatypes.JSONMap{}}
	assert.NoError(t, db.Create(org).Error)

	seedMember := func(email string, lastActive *time.Time, createdAt time.Time) *orgdomain.Member {
		member := &orgdomain.Member{
			ID:           node.Generate(),
			OrgID:        org.ID,
			Email:        email,
			DisplayName:  email,
			Role:         orgdomain.RoleStudent,
			LastActiveAt: lastActive,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
		assert.NoError(t, db.Create(member).Error)
		return member
	}

	tenDaysAgo := now.Add(-10 * 24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	idle := seedMember("idle@example.com", &tenDaysAgo, tenDaysAgo)
	active := seedMember("active@example.com", &yesterday, tenDaysAgo)
	neverSeen := seedMember("ghost@example.com", nil, tenDaysAgo)
	_ = active

	rule := &automationdomain.AutomationRule{
		ID:            node.Generate(),
		OrgID:         org.ID,
		TriggerType:   automationdomain.TriggerInactiveDays,
		TriggerConfig: datatypes.JSON([]byte(`{"days":7}`)),
		EmailSubject:  "We miss you",
		EmailBody:     "Come back",
		Enabled:       true,
	}
	assert.NoError(t, db.Create(rule).Error)

	assert.NoError(t, scanner.RunOnce(context.Background()))

	fired := recorder.firedMembers()
	assert.ElementsMatch(t, []snowflake.ID{idle.ID, neverSeen.ID}, fired)
	for _, event := range recorder.events {
		assert.Equal(t, automationdomain.TriggerInactiveDays, event.Type)
		assert.Equal(t, org.ID, event.OrgID)
	}
}

func TestScanner_DisabledRuleIgnored(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:scanner_disabled_rule?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.Member{},
		&automationdomain.AutomationRule{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recorder := &fireRecorder{}

	scanner, err := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Cfg:        config.Config{},
		Clock:      clock.NewFakeClock(now),
		Rules:      automationrepository.ProvideRules(),
		Roster:     orgrepository.Provide(),
		Automation: recorder,
	})
	assert.NoError(t, err)

	org := &orgdomain.Organization{ID: node.Generate(), Name: "Main", Slug: "quiet", Metadata: datatypes.JSONMap{}}
	assert.NoError(t, db.Create(org).Error)

	past := now.Add(-30 * 24 * time.Hour)
	assert.NoError(t, db.Create(&orgdomain.Member{
		ID:           node.Generate(),
		OrgID:        org.ID,
		Email:        "idle@example.com",
		DisplayName:  "Idle",
		Role:         orgdomain.RoleStudent,
		LastActiveAt: &past,
		CreatedAt:    past,
		UpdatedAt:    past,
	}).Error)

	assert.NoError(t, db.Create(&automationdomain.AutomationRule{
		ID:            node.Generate(),
		OrgID:         org.ID,
		TriggerType:   automationdomain.TriggerInactiveDays,
		TriggerConfig: datatypes.JSON([]byte(`{"days":7}`)),
		EmailSubject:  "We miss you",
		EmailBody:     "Come back",
		Enabled:       false,
	}).Error)

	assert.NoError(t, scanner.RunOnce(context.Background()))
	assert.Empty(t, recorder.firedMembers())
}
