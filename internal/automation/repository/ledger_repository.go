package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/automation/domain"
	"gorm.io/gorm"
)

type ledgerRepo struct{}

func ProvideLedger() domain.LedgerRepository {
	return &ledgerRepo{}
}

func (r *ledgerRepo) Exists(ctx context.Context, db *gorm.DB, ruleID, memberID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.DeliveryRecord{}).
		Where("rule_id = ? AND member_id = ?", ruleID, memberID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record inserts the ledger row. The unique (rule_id, member_id) index
// rejects concurrent duplicates; callers map the duplicate-key error to
// "already sent" via db.IsDuplicateKeyErr.
func (r *ledgerRepo) Record(ctx context.Context, db *gorm.DB, record *domain.DeliveryRecord) error {
	return db.WithContext(ctx).Create(record).Error
}
