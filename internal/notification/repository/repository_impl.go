package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/notification/domain"
	"github.com/smallbiznis/academia/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// BulkInsert writes the whole fan-out in one batched statement. Partial
// failure is not retried; the caller logs and moves on.
func (r *repo) BulkInsert(ctx context.Context, db *gorm.DB, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(notifications, 200).Error
}

func (r *repo) ListForMember(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*domain.Notification, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND member_id = ?", orgID, memberID)
	if unreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.CreatedAt != "" {
			// Bind typed values so the comparison matches the column
			// encoding on every dialect.
			ts, tsErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			id, idErr := snowflake.ParseString(cursor.ID)
			if tsErr == nil && idErr == nil {
				stmt = stmt.Where("(created_at, id) < (?, ?)", ts, id)
			}
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 10
	}

	var notifications []*domain.Notification
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, orgID, memberID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND member_id = ? AND id = ?", orgID, memberID, id).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
