// Package domain contains the automation rule and delivery ledger models.
package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TriggerType identifies the domain event an automation rule listens for.
type TriggerType string

const (
	TriggerNewUser         TriggerType = "new_user"
	TriggerCourseEnrolled  TriggerType = "course_enrolled"
	TriggerLessonCompleted TriggerType = "lesson_completed"
	TriggerCourseCompleted TriggerType = "course_completed"
	TriggerInactiveDays    TriggerType = "inactive_days"
)

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidTriggerType   = errors.New("invalid_trigger_type")
	ErrInvalidTriggerConfig = errors.New("invalid_trigger_config")
	ErrInvalidTemplate      = errors.New("invalid_template")
	ErrInvalidID            = errors.New("invalid_id")
	ErrRuleNotFound         = errors.New("rule_not_found")
)

// AutomationRule maps a trigger to an email template, per tenant.
// The engine treats rules as read-only configuration.
type AutomationRule struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID   `gorm:"not null;index:ix_rules_org_trigger,priority:1" json:"org_id"`
	TriggerType   TriggerType    `gorm:"type:text;not null;index:ix_rules_org_trigger,priority:2" json:"trigger_type"`
	TriggerConfig datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"trigger_config"`
	EmailSubject  string         `gorm:"type:text;not null" json:"email_subject"`
	EmailBody     string         `gorm:"type:text;not null" json:"email_body"`
	Enabled       bool           `gorm:"not null;default:true" json:"enabled"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AutomationRule) TableName() string { return "automation_rules" }

// DeliveryRecord is proof a rule already fired for a member. The unique
// index on (rule_id, member_id) is the at-most-once contract; rows are
// written only after a confirmed send.
type DeliveryRecord struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID    snowflake.ID `gorm:"not null;index" json:"org_id"`
	RuleID   snowflake.ID `gorm:"not null;uniqueIndex:ux_deliveries_rule_member,priority:1" json:"rule_id"`
	MemberID snowflake.ID `gorm:"not null;uniqueIndex:ux_deliveries_rule_member,priority:2" json:"member_id"`
	SentAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"sent_at"`
}

func (DeliveryRecord) TableName() string { return "delivery_records" }

// TriggerConfig is the tagged variant behind AutomationRule.TriggerConfig.
// Each trigger type carries its own strongly typed payload, so the
// condition evaluator is a plain switch with no loosely typed fields.
type TriggerConfig interface {
	isTriggerConfig()
}

type NewUserTrigger struct{}

type CourseEnrolledTrigger struct {
	CourseID snowflake.ID `json:"course_id"`
}

type LessonCompletedTrigger struct {
	LessonID snowflake.ID `json:"lesson_id"`
}

type CourseCompletedTrigger struct {
	CourseID snowflake.ID `json:"course_id"`
}

type InactiveDaysTrigger struct {
	Days int `json:"days"`
}

func (NewUserTrigger) isTriggerConfig()         {}
func (CourseEnrolledTrigger) isTriggerConfig()  {}
func (LessonCompletedTrigger) isTriggerConfig() {}
func (CourseCompletedTrigger) isTriggerConfig() {}
func (InactiveDaysTrigger) isTriggerConfig()    {}

// Trigger decodes the stored config into the variant matching the rule's
// trigger type. A malformed or mistyped config yields an error and the
// rule is skipped; it never aborts evaluation of sibling rules.
func (r AutomationRule) Trigger() (TriggerConfig, error) {
	raw := []byte(r.TriggerConfig)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch r.TriggerType {
	case TriggerNewUser:
		return NewUserTrigger{}, nil
	case TriggerCourseEnrolled:
		var cfg CourseEnrolledTrigger
		if err := json.Unmarshal(raw, &cfg); err != nil || cfg.CourseID == 0 {
			return nil, ErrInvalidTriggerConfig
		}
		return cfg, nil
	case TriggerLessonCompleted:
		var cfg LessonCompletedTrigger
		if err := json.Unmarshal(raw, &cfg); err != nil || cfg.LessonID == 0 {
			return nil, ErrInvalidTriggerConfig
		}
		return cfg, nil
	case TriggerCourseCompleted:
		var cfg CourseCompletedTrigger
		if err := json.Unmarshal(raw, &cfg); err != nil || cfg.CourseID == 0 {
			return nil, ErrInvalidTriggerConfig
		}
		return cfg, nil
	case TriggerInactiveDays:
		var cfg InactiveDaysTrigger
		if err := json.Unmarshal(raw, &cfg); err != nil || cfg.Days <= 0 {
			return nil, ErrInvalidTriggerConfig
		}
		return cfg, nil
	default:
		return nil, ErrInvalidTriggerType
	}
}

// ParseTriggerType validates a raw trigger type string.
func ParseTriggerType(raw string) (TriggerType, error) {
	switch TriggerType(raw) {
	case TriggerNewUser, TriggerCourseEnrolled, TriggerLessonCompleted, TriggerCourseCompleted, TriggerInactiveDays:
		return TriggerType(raw), nil
	default:
		return "", ErrInvalidTriggerType
	}
}
