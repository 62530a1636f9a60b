package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/notification/domain"
	"github.com/smallbiznis/academia/internal/notification/resolver"
	obsmetrics "github.com/smallbiznis/academia/internal/observability/metrics"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"github.com/smallbiznis/academia/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Resolver *resolver.Resolver
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	resolver *resolver.Resolver
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("notification.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		resolver: p.Resolver,
	}
}

// Notify resolves the scope and bulk-writes one notification row per
// recipient. It never returns an error: failures are logged with enough
// context to diagnose and the triggering business action completes.
func (s *Service) Notify(ctx context.Context, req domain.NotifyRequest) domain.NotifyOutcome {
	log := s.log.With(
		zap.String("org_id", req.OrgID.String()),
		zap.String("scope", string(req.Scope.Kind)),
		zap.String("type", req.Type),
	)

	if req.OrgID == 0 {
		log.Warn("dropping fan-out without organization")
		return domain.NotifyOutcome{}
	}

	recipients, err := s.resolver.Resolve(ctx, req.OrgID, req.Scope, req.ActorID)
	if err != nil {
		log.Warn("recipient resolution failed", zap.Error(err))
		return domain.NotifyOutcome{}
	}
	if len(recipients) == 0 {
		// Legal no-op: nothing to write.
		return domain.NotifyOutcome{}
	}

	now := time.Now().UTC()
	rows := make([]*domain.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		rows = append(rows, &domain.Notification{
			ID:        s.genID.Generate(),
			OrgID:     req.OrgID,
			MemberID:  recipient.ID,
			Type:      req.Type,
			Title:     req.Title,
			Content:   req.Content,
			Link:      req.Link,
			ActorID:   req.ActorID,
			TargetID:  req.TargetID,
			CreatedAt: now,
		})
	}

	if err := s.repo.BulkInsert(ctx, s.db, rows); err != nil {
		log.Warn("notification bulk insert failed",
			zap.Int("recipients", len(rows)),
			zap.Error(err),
		)
		return domain.NotifyOutcome{}
	}

	obsmetrics.Engine().ObserveFanout(string(req.Scope.Kind), len(rows))
	return domain.NotifyOutcome{Recipients: len(rows)}
}

func (s *Service) Feed(ctx context.Context, req domain.FeedRequest) (domain.FeedResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.FeedResponse{}, domain.ErrInvalidOrganization
	}

	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.FeedResponse{}, domain.ErrInvalidMember
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	items, err := s.repo.ListForMember(ctx, s.db, orgID, memberID, req.UnreadOnly, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.FeedResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(n *domain.Notification) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        n.ID.String(),
			CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}

	resp := domain.FeedResponse{Notifications: notifications}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, req domain.MarkReadRequest) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.ErrInvalidMember
	}
	id, err := parseID(req.NotificationID)
	if err != nil {
		return domain.ErrNotFound
	}

	affected, err := s.repo.MarkRead(ctx, s.db, orgID, memberID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
