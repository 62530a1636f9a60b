package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the read-only directory interface the notification engine
// resolves recipients through. Member writes happen on the signup path only.
type Repository interface {
	FindOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Organization, error)
	FindMember(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID) (*Member, error)
	ListByRole(ctx context.Context, db *gorm.DB, orgID snowflake.ID, roles []Role) ([]*Member, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*Member, error)
	ListInactiveSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, cutoff time.Time, limit int) ([]*Member, error)
	InsertMember(ctx context.Context, db *gorm.DB, member *Member) error
	TouchLastActive(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID) error
}
