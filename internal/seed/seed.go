// Package seed bootstraps the default tenant so a fresh install is
// usable without any manual setup.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	organizationdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultOrgName      = "Main"
	defaultOrgSlug      = "main"
	defaultAdminEmail   = "admin@academia.app"
	defaultAdminDisplay = "Academia Admin"
)

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return ensureMainOrg(db, 0)
}

// EnsureMainOrgWithID seeds the default organization with a fixed ID so
// self-hosted installs keep a stable tenant identifier across restarts.
func EnsureMainOrgWithID(db *gorm.DB, orgID int64) error {
	return ensureMainOrg(db, snowflake.ID(orgID))
}

func ensureMainOrg(db *gorm.DB, orgID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node, orgID)
		if err != nil {
			return err
		}
		if err := ensureAdminMemberTx(ctx, tx, node, org.ID); err != nil {
			return err
		}
		return ensureWelcomeRuleTx(ctx, tx, node, org.ID)
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return org, err
	}
	if orgID == 0 {
		orgID = node.Generate()
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        orgID,
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		IsDefault: true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return org, err
	}
	return org, nil
}

func ensureAdminMemberTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var member organizationdomain.Member
	err := tx.WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, defaultAdminEmail).
		First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now().UTC()
	member = organizationdomain.Member{
		ID:          node.Generate(),
		OrgID:       orgID,
		Email:       defaultAdminEmail,
		DisplayName: defaultAdminDisplay,
		Role:        organizationdomain.RoleOwner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return tx.WithContext(ctx).Create(&member).Error
}

func ensureWelcomeRuleTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&automationdomain.AutomationRule{}).
		Where("org_id = ? AND trigger_type = ?", orgID, automationdomain.TriggerNewUser).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UTC()
	rule := automationdomain.AutomationRule{
		ID:            node.Generate(),
		OrgID:         orgID,
		TriggerType:   automationdomain.TriggerNewUser,
		TriggerConfig: datatypes.JSON([]byte(`{}`)),
		EmailSubject:  "Welcome to {{org_name}}, {{name}}!",
		EmailBody:     "Hi {{name}},\n\nYour {{org_name}} account is ready. Sign in at {{login_url}} to get started.",
		Enabled:       true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return tx.WithContext(ctx).Create(&rule).Error
}
