package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, is_default, metadata, created_at, updated_at
		 FROM organizations WHERE id = ?`,
		orgID,
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, email, display_name, role, last_active_at, created_at, updated_at
		 FROM organization_members WHERE org_id = ? AND id = ?`,
		orgID,
		memberID,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) ListByRole(ctx context.Context, db *gorm.DB, orgID snowflake.ID, roles []domain.Role) ([]*domain.Member, error) {
	var members []*domain.Member
	err := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("org_id = ? AND role IN ?", orgID, roles).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.Member, error) {
	var members []*domain.Member
	err := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("org_id = ?", orgID).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListInactiveSince returns members whose last activity (or signup, when
// they never became active) predates the cutoff.
func (r *repo) ListInactiveSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, cutoff time.Time, limit int) ([]*domain.Member, error) {
	var members []*domain.Member
	err := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("org_id = ? AND COALESCE(last_active_at, created_at) <= ?", orgID, cutoff).
		Order("id").
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) TouchLastActive(ctx context.Context, db *gorm.DB, orgID, memberID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("org_id = ? AND id = ?", orgID, memberID).
		Updates(map[string]any{"last_active_at": time.Now().UTC(), "updated_at": time.Now().UTC()}).Error
}
