// Package scanner sweeps tenant rosters for members who went quiet and
// feeds them to the automation engine as inactive_days events.
package scanner

import (
	"context"
	"errors"
	"time"

	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/clock"
	"github.com/smallbiznis/academia/internal/config"
	obsmetrics "github.com/smallbiznis/academia/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const lockKey = "academia:scanner:inactivity"

var ErrInvalidConfig = errors.New("invalid scanner configuration")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	Clock      clock.Clock
	Rules      automationdomain.RuleRepository
	Roster     orgdomain.Repository
	Automation automationdomain.Service
	Locker     *Locker `optional:"true"`
}

type Scanner struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.ScannerConfig
	clock      clock.Clock
	rules      automationdomain.RuleRepository
	roster     orgdomain.Repository
	automation automationdomain.Service
	locker     *Locker
}

func New(p Params) (*Scanner, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Rules == nil || p.Roster == nil || p.Automation == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Cfg.Scanner
	if cfg.RunInterval <= 0 {
		cfg.RunInterval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Scanner{
		db:         p.DB,
		log:        p.Log.Named("scanner").With(zap.String("component", "inactivity_scanner")),
		cfg:        cfg,
		clock:      p.Clock,
		rules:      p.Rules,
		roster:     p.Roster,
		automation: p.Automation,
		locker:     p.Locker,
	}, nil
}

// RunOnce sweeps every tenant that has an enabled inactive_days rule.
// Per-rule failures are joined and reported but never stop the sweep;
// the delivery ledger downstream keeps repeat sweeps idempotent.
func (s *Scanner) RunOnce(ctx context.Context) error {
	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("scanner lock unavailable", zap.Error(err))
			return err
		}
		if !ok {
			s.log.Debug("another replica holds the scanner lock")
			return nil
		}
		defer func() {
			if err := s.locker.Release(ctx, lockKey, token); err != nil {
				s.log.Warn("scanner lock release failed", zap.Error(err))
			}
		}()
	}

	obsmetrics.Engine().IncScanRun()

	rules, err := s.rules.ListEnabledAcrossOrgs(ctx, s.db, automationdomain.TriggerInactiveDays)
	if err != nil {
		s.log.Warn("inactivity rule load failed", zap.Error(err))
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	now := s.clock.Now()
	var sweepErr error
	fired := 0

	for _, rule := range rules {
		if ctx.Err() != nil {
			return errors.Join(sweepErr, ctx.Err())
		}

		trigger, err := rule.Trigger()
		if err != nil {
			s.log.Warn("skipping rule with invalid trigger config",
				zap.String("rule_id", rule.ID.String()),
				zap.Error(err),
			)
			continue
		}
		cfg, ok := trigger.(automationdomain.InactiveDaysTrigger)
		if !ok {
			continue
		}

		cutoff := now.Add(-time.Duration(cfg.Days) * 24 * time.Hour)
		members, err := s.roster.ListInactiveSince(ctx, s.db, rule.OrgID, cutoff, s.cfg.BatchSize)
		if err != nil {
			sweepErr = errors.Join(sweepErr, err)
			s.log.Warn("inactive member scan failed",
				zap.String("org_id", rule.OrgID.String()),
				zap.String("rule_id", rule.ID.String()),
				zap.Error(err),
			)
			continue
		}

		for _, member := range members {
			outcome := s.automation.Fire(ctx, automationdomain.Event{
				Type:     automationdomain.TriggerInactiveDays,
				OrgID:    rule.OrgID,
				MemberID: member.ID,
			})
			fired += outcome.Sent
		}
	}

	if fired > 0 {
		s.log.Info("inactivity sweep delivered reminders", zap.Int("sent", fired))
	}
	return sweepErr
}

func (s *Scanner) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scanner run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
