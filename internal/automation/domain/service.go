package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Event is a domain occurrence reported by a business action. MemberID is
// the member the event happened to (and the rule recipient). CourseID and
// LessonID are set depending on the trigger type.
type Event struct {
	Type     TriggerType
	OrgID    snowflake.ID
	MemberID snowflake.ID
	CourseID snowflake.ID
	LessonID snowflake.ID
}

// FireOutcome reports what a single Fire call did. It exists for
// observability and tests; callers never treat it as a failure.
type FireOutcome struct {
	Evaluated int `json:"evaluated"`
	Matched   int `json:"matched"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type CreateRuleRequest struct {
	TriggerType  string
	CourseID     string
	LessonID     string
	Days         int
	EmailSubject string
	EmailBody    string
	Enabled      bool
}

type SetRuleEnabledRequest struct {
	ID      string
	Enabled bool
}

// Service is the automation engine boundary. Fire never returns an error:
// rule evaluation and delivery failures are contained and logged so the
// triggering business action cannot fail because of them.
type Service interface {
	Fire(ctx context.Context, event Event) FireOutcome

	CreateRule(ctx context.Context, req CreateRuleRequest) (AutomationRule, error)
	ListRules(ctx context.Context) ([]AutomationRule, error)
	SetRuleEnabled(ctx context.Context, req SetRuleEnabledRequest) (AutomationRule, error)
}
