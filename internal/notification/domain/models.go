// Package domain contains the in-app notification models and the fan-out
// service boundary.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notification is one delivered in-app message instance. Rows are
// append-only; the read flag is the only mutation.
type Notification struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	MemberID  snowflake.ID `gorm:"not null;index:ix_notifications_member_created,priority:1" json:"member_id"`
	Type      string       `gorm:"type:text;not null" json:"type"`
	Title     string       `gorm:"type:text;not null" json:"title"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	Link      string       `gorm:"type:text" json:"link,omitempty"`
	ActorID   snowflake.ID `gorm:"index" json:"actor_id,omitempty"`
	TargetID  snowflake.ID `gorm:"index" json:"target_id,omitempty"`
	IsRead    bool         `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_notifications_member_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// ScopeKind selects how the recipient set is computed.
type ScopeKind string

const (
	// ScopeMember targets one explicit recipient (direct messages).
	ScopeMember ScopeKind = "member"
	// ScopeCourse targets everyone enrolled in a course plus tenant staff.
	ScopeCourse ScopeKind = "course"
	// ScopeOrg targets every member of the tenant.
	ScopeOrg ScopeKind = "org"
)

// Scope describes a recipient set. The actor, when set, is always excluded
// from the resolved set.
type Scope struct {
	Kind     ScopeKind
	CourseID snowflake.ID
	MemberID snowflake.ID
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidScope        = errors.New("invalid_scope")
	ErrInvalidMember       = errors.New("invalid_member")
	ErrNotFound            = errors.New("not_found")
)
