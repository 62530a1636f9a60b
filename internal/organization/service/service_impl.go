package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/organization/domain"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"github.com/smallbiznis/academia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Automation automationdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	automation automationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("organization.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		automation: p.Automation,
	}
}

func (s *Service) CreateMember(ctx context.Context, req domain.CreateMemberRequest) (domain.Member, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Member{}, domain.ErrInvalidOrganization
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Member{}, domain.ErrInvalidEmail
	}

	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}
	switch role {
	case domain.RoleStudent, domain.RoleSupport, domain.RoleAdmin, domain.RoleOwner:
	default:
		return domain.Member{}, domain.ErrInvalidRole
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	now := time.Now().UTC()
	member := domain.Member{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Email:       email,
		DisplayName: name,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertMember(ctx, s.db, &member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Member{}, domain.ErrEmailTaken
		}
		return domain.Member{}, err
	}

	s.automation.Fire(ctx, automationdomain.Event{
		Type:     automationdomain.TriggerNewUser,
		OrgID:    orgID,
		MemberID: member.ID,
	})

	return member, nil
}
