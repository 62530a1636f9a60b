// Package domain contains persistence models for the org roster.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Organization represents a tenant. All engine reads and writes are scoped
// by organization ID.
type Organization struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Slug      string            `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	IsDefault bool              `gorm:"column:is_default" json:"is_default"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// Role determines inclusion in staff-wide vs student-wide fan-outs.
type Role string

const (
	RoleStudent Role = "student"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

// StaffRoles are the roles included in course-scoped fan-outs alongside
// the enrolled students.
var StaffRoles = []Role{RoleAdmin, RoleSupport}

// Member represents a tenant member eligible to receive notifications.
type Member struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index;uniqueIndex:ux_members_org_email,priority:1" json:"org_id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_members_org_email,priority:2" json:"email"`
	DisplayName  string       `gorm:"type:text;not null" json:"display_name"`
	Role         Role         `gorm:"type:text;not null" json:"role"`
	LastActiveAt *time.Time   `gorm:"column:last_active_at;index" json:"last_active_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "organization_members" }
