// Package resolver computes the recipient set for a notification scope.
package resolver

import (
	"context"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/smallbiznis/academia/internal/course/domain"
	"github.com/smallbiznis/academia/internal/notification/domain"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Roster  orgdomain.Repository
	Courses coursedomain.Repository
}

type Resolver struct {
	db      *gorm.DB
	roster  orgdomain.Repository
	courses coursedomain.Repository
}

func New(p Params) *Resolver {
	return &Resolver{
		db:      p.DB,
		roster:  p.Roster,
		courses: p.Courses,
	}
}

// Resolve returns the deduplicated recipient set for the scope, never
// containing the actor. An empty result is legal and means no-op.
func (r *Resolver) Resolve(ctx context.Context, orgID snowflake.ID, scope domain.Scope, actorID snowflake.ID) ([]*orgdomain.Member, error) {
	switch scope.Kind {
	case domain.ScopeMember:
		if scope.MemberID == 0 {
			return nil, domain.ErrInvalidScope
		}
		member, err := r.roster.FindMember(ctx, r.db, orgID, scope.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil || member.ID == actorID {
			return nil, nil
		}
		return []*orgdomain.Member{member}, nil

	case domain.ScopeCourse:
		if scope.CourseID == 0 {
			return nil, domain.ErrInvalidScope
		}
		enrolled, err := r.courses.ListEnrolledMembers(ctx, r.db, orgID, scope.CourseID)
		if err != nil {
			return nil, err
		}
		staff, err := r.roster.ListByRole(ctx, r.db, orgID, orgdomain.StaffRoles)
		if err != nil {
			return nil, err
		}
		return dedupe(actorID, enrolled, staff), nil

	case domain.ScopeOrg:
		members, err := r.roster.ListAll(ctx, r.db, orgID)
		if err != nil {
			return nil, err
		}
		return dedupe(actorID, members), nil

	default:
		return nil, domain.ErrInvalidScope
	}
}

// dedupe merges member lists preserving first-seen order, dropping
// duplicates and the actor. Store return order must not matter for the
// no-duplicates guarantee.
func dedupe(actorID snowflake.ID, lists ...[]*orgdomain.Member) []*orgdomain.Member {
	seen := make(map[snowflake.ID]struct{})
	var out []*orgdomain.Member
	for _, list := range lists {
		for _, member := range list {
			if member == nil || member.ID == 0 || member.ID == actorID {
				continue
			}
			if _, ok := seen[member.ID]; ok {
				continue
			}
			seen[member.ID] = struct{}{}
			out = append(out, member)
		}
	}
	return out
}
