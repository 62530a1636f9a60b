package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"gorm.io/datatypes"
)

// CreateRule validates the request, encodes the typed trigger config and
// stores the rule for the active tenant.
func (s *Service) CreateRule(ctx context.Context, req domain.CreateRuleRequest) (domain.AutomationRule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.AutomationRule{}, domain.ErrInvalidOrganization
	}

	triggerType, err := domain.ParseTriggerType(strings.TrimSpace(req.TriggerType))
	if err != nil {
		return domain.AutomationRule{}, err
	}

	if strings.TrimSpace(req.EmailSubject) == "" || strings.TrimSpace(req.EmailBody) == "" {
		return domain.AutomationRule{}, domain.ErrInvalidTemplate
	}

	cfgJSON, err := encodeTriggerConfig(triggerType, req)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	now := time.Now().UTC()
	rule := domain.AutomationRule{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		TriggerType:   triggerType,
		TriggerConfig: datatypes.JSON(cfgJSON),
		EmailSubject:  req.EmailSubject,
		EmailBody:     req.EmailBody,
		Enabled:       req.Enabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.rules.Insert(ctx, s.db, &rule); err != nil {
		return domain.AutomationRule{}, err
	}
	return rule, nil
}

func (s *Service) ListRules(ctx context.Context) ([]domain.AutomationRule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.rules.List(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	rules := make([]domain.AutomationRule, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rules = append(rules, *item)
	}
	return rules, nil
}

func (s *Service) SetRuleEnabled(ctx context.Context, req domain.SetRuleEnabledRequest) (domain.AutomationRule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.AutomationRule{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.AutomationRule{}, domain.ErrInvalidID
	}

	rule, err := s.rules.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.AutomationRule{}, err
	}
	if rule == nil {
		return domain.AutomationRule{}, domain.ErrRuleNotFound
	}

	if err := s.rules.SetEnabled(ctx, s.db, orgID, id, req.Enabled); err != nil {
		return domain.AutomationRule{}, err
	}

	rule.Enabled = req.Enabled
	return *rule, nil
}

func encodeTriggerConfig(triggerType domain.TriggerType, req domain.CreateRuleRequest) ([]byte, error) {
	switch triggerType {
	case domain.TriggerNewUser:
		return []byte("{}"), nil
	case domain.TriggerCourseEnrolled:
		courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
		if err != nil || courseID == 0 {
			return nil, domain.ErrInvalidTriggerConfig
		}
		return json.Marshal(domain.CourseEnrolledTrigger{CourseID: courseID})
	case domain.TriggerCourseCompleted:
		courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
		if err != nil || courseID == 0 {
			return nil, domain.ErrInvalidTriggerConfig
		}
		return json.Marshal(domain.CourseCompletedTrigger{CourseID: courseID})
	case domain.TriggerLessonCompleted:
		lessonID, err := snowflake.ParseString(strings.TrimSpace(req.LessonID))
		if err != nil || lessonID == 0 {
			return nil, domain.ErrInvalidTriggerConfig
		}
		return json.Marshal(domain.LessonCompletedTrigger{LessonID: lessonID})
	case domain.TriggerInactiveDays:
		if req.Days <= 0 {
			return nil, domain.ErrInvalidTriggerConfig
		}
		return json.Marshal(domain.InactiveDaysTrigger{Days: req.Days})
	default:
		return nil, domain.ErrInvalidTriggerType
	}
}
