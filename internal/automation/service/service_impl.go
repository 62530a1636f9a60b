package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/automation/render"
	"github.com/smallbiznis/academia/internal/clock"
	"github.com/smallbiznis/academia/internal/config"
	coursedomain "github.com/smallbiznis/academia/internal/course/domain"
	obsmetrics "github.com/smallbiznis/academia/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"github.com/smallbiznis/academia/internal/providers/email"
	"github.com/smallbiznis/academia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rules   domain.RuleRepository
	Ledger  domain.LedgerRepository
	Roster  orgdomain.Repository
	Courses coursedomain.Repository
	Email   email.Provider
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	genID   *snowflake.Node
	clock   clock.Clock
	rules   domain.RuleRepository
	ledger  domain.LedgerRepository
	roster  orgdomain.Repository
	courses coursedomain.Repository
	email   email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("automation.service"),
		cfg:     p.Cfg,
		genID:   p.GenID,
		clock:   p.Clock,
		rules:   p.Rules,
		ledger:  p.Ledger,
		roster:  p.Roster,
		courses: p.Courses,
		email:   p.Email,
	}
}

// Fire evaluates every enabled rule of the event's tenant and trigger type.
// It never returns an error: the calling business action must not fail
// because a notification could not be delivered. Rule failures are
// isolated, logged, and reflected in the outcome counters only.
func (s *Service) Fire(ctx context.Context, event domain.Event) domain.FireOutcome {
	var out domain.FireOutcome
	log := s.log.With(
		zap.String("trigger", string(event.Type)),
		zap.String("org_id", event.OrgID.String()),
		zap.String("member_id", event.MemberID.String()),
	)

	if event.OrgID == 0 || event.MemberID == 0 {
		log.Warn("dropping event with missing identifiers")
		return out
	}

	member, err := s.roster.FindMember(ctx, s.db, event.OrgID, event.MemberID)
	if err != nil {
		log.Warn("recipient lookup failed", zap.Error(err))
		return out
	}
	if member == nil {
		log.Warn("recipient not found")
		return out
	}

	org, err := s.roster.FindOrg(ctx, s.db, event.OrgID)
	if err != nil {
		log.Warn("organization lookup failed", zap.Error(err))
		return out
	}
	if org == nil {
		log.Warn("organization not found")
		return out
	}

	rules, err := s.rules.ListEnabled(ctx, s.db, event.OrgID, event.Type)
	if err != nil {
		log.Warn("rule load failed", zap.Error(err))
		return out
	}

	engineMetrics := obsmetrics.Engine()
	for _, rule := range rules {
		out.Evaluated++
		ruleLog := log.With(zap.String("rule_id", rule.ID.String()))

		trigger, err := rule.Trigger()
		if err != nil {
			ruleLog.Warn("skipping rule with invalid trigger config", zap.Error(err))
			continue
		}

		matched, extra, err := s.evaluate(ctx, event, member, trigger)
		if err != nil {
			// Verification failures fail closed: condition not met.
			ruleLog.Warn("condition verification failed", zap.Error(err))
			continue
		}
		if !matched {
			continue
		}
		out.Matched++

		alreadySent, err := s.ledger.Exists(ctx, s.db, rule.ID, member.ID)
		if err != nil {
			ruleLog.Warn("delivery guard lookup failed", zap.Error(err))
			out.Failed++
			engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultFailed)
			continue
		}
		if alreadySent {
			out.Skipped++
			engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultSkipped)
			continue
		}

		vars := s.baseVars(member, org)
		for key, value := range extra {
			vars[key] = value
		}
		subject := render.Render(rule.EmailSubject, vars)
		body := render.Render(rule.EmailBody, vars)

		if err := s.email.Send(ctx, []string{member.Email}, subject, body); err != nil {
			// No ledger write on failure; the rule stays eligible for the
			// next occurrence of this event.
			ruleLog.Warn("email send failed", zap.Error(err))
			out.Failed++
			engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultFailed)
			continue
		}

		record := &domain.DeliveryRecord{
			ID:       s.genID.Generate(),
			OrgID:    event.OrgID,
			RuleID:   rule.ID,
			MemberID: member.ID,
			SentAt:   s.clock.Now(),
		}
		if err := s.ledger.Record(ctx, s.db, record); err != nil {
			if db.IsDuplicateKeyErr(err) {
				// A concurrent delivery won the race; the unique index is
				// the source of truth for at-most-once.
				out.Skipped++
				engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultSkipped)
				continue
			}
			ruleLog.Error("delivery ledger write failed", zap.Error(err))
			out.Failed++
			engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultFailed)
			continue
		}

		out.Sent++
		engineMetrics.IncDelivery(string(event.Type), obsmetrics.DeliveryResultSent)
	}

	return out
}
