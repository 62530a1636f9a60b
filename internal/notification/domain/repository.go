package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	BulkInsert(ctx context.Context, db *gorm.DB, notifications []*Notification) error
	ListForMember(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, orgID, memberID, id snowflake.ID) (int64, error)
}
