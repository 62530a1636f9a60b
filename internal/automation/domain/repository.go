package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RuleRepository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *AutomationRule) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*AutomationRule, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*AutomationRule, error)
	ListEnabled(ctx context.Context, db *gorm.DB, orgID snowflake.ID, trigger TriggerType) ([]*AutomationRule, error)
	ListEnabledAcrossOrgs(ctx context.Context, db *gorm.DB, trigger TriggerType) ([]*AutomationRule, error)
	SetEnabled(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, enabled bool) error
}

// LedgerRepository is the delivery guard. Record relies on the unique
// (rule_id, member_id) index; a duplicate-key error means a concurrent
// send won and must be treated as "already sent".
type LedgerRepository interface {
	Exists(ctx context.Context, db *gorm.DB, ruleID, memberID snowflake.ID) (bool, error)
	Record(ctx context.Context, db *gorm.DB, record *DeliveryRecord) error
}
