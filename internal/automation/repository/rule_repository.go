package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/automation/domain"
	"gorm.io/gorm"
)

type ruleRepo struct{}

func ProvideRules() domain.RuleRepository {
	return &ruleRepo{}
}

func (r *ruleRepo) Insert(ctx context.Context, db *gorm.DB, rule *domain.AutomationRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.AutomationRule, error) {
	var rule domain.AutomationRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, trigger_type, trigger_config, email_subject, email_body, enabled, created_at, updated_at
		 FROM automation_rules WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *ruleRepo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	err := db.WithContext(ctx).
		Model(&domain.AutomationRule{}).
		Where("org_id = ?", orgID).
		Order("created_at desc, id desc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepo) ListEnabled(ctx context.Context, db *gorm.DB, orgID snowflake.ID, trigger domain.TriggerType) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	err := db.WithContext(ctx).
		Model(&domain.AutomationRule{}).
		Where("org_id = ? AND trigger_type = ? AND enabled = ?", orgID, trigger, true).
		Order("id").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ListEnabledAcrossOrgs feeds the inactivity scanner, which sweeps every
// tenant in one pass.
func (r *ruleRepo) ListEnabledAcrossOrgs(ctx context.Context, db *gorm.DB, trigger domain.TriggerType) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	err := db.WithContext(ctx).
		Model(&domain.AutomationRule{}).
		Where("trigger_type = ? AND enabled = ?", trigger, true).
		Order("org_id, id").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepo) SetEnabled(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, enabled bool) error {
	return db.WithContext(ctx).
		Model(&domain.AutomationRule{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{"enabled": enabled, "updated_at": time.Now().UTC()}).Error
}
