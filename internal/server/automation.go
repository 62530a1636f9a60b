package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/automation/domain"
)

func (s *Server) ListRules(c *gin.Context) {
	rules, err := s.automationSvc.ListRules(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *Server) CreateRule(c *gin.Context) {
	var req struct {
		TriggerType  string `json:"trigger_type"`
		CourseID     string `json:"course_id"`
		LessonID     string `json:"lesson_id"`
		Days         int    `json:"days"`
		EmailSubject string `json:"email_subject"`
		EmailBody    string `json:"email_body"`
		Enabled      *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := s.automationSvc.CreateRule(c.Request.Context(), domain.CreateRuleRequest{
		TriggerType:  req.TriggerType,
		CourseID:     req.CourseID,
		LessonID:     req.LessonID,
		Days:         req.Days,
		EmailSubject: req.EmailSubject,
		EmailBody:    req.EmailBody,
		Enabled:      enabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (s *Server) SetRuleEnabled(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.automationSvc.SetRuleEnabled(c.Request.Context(), domain.SetRuleEnabledRequest{
		ID:      c.Param("id"),
		Enabled: *req.Enabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}
