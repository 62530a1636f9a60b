package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/notification/domain"
	"github.com/smallbiznis/academia/internal/orgcontext"
)

// SendMessage fans a message out to a member, a course audience or the
// whole tenant. The sender is always excluded from the recipient set.
func (s *Server) SendMessage(c *gin.Context) {
	var req struct {
		Scope    string `json:"scope"`
		MemberID string `json:"member_id"`
		CourseID string `json:"course_id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		Link     string `json:"link"`
		ActorID  string `json:"actor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok || orgID == 0 {
		AbortWithError(c, domain.ErrInvalidOrganization)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		AbortWithError(c, newValidationError("title", "invalid_title", "invalid value"))
		return
	}

	scope := domain.Scope{Kind: domain.ScopeKind(req.Scope)}
	switch scope.Kind {
	case domain.ScopeMember:
		memberID, err := snowflake.ParseString(strings.TrimSpace(req.MemberID))
		if err != nil || memberID == 0 {
			AbortWithError(c, domain.ErrInvalidMember)
			return
		}
		scope.MemberID = memberID
	case domain.ScopeCourse:
		courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
		if err != nil || courseID == 0 {
			AbortWithError(c, domain.ErrInvalidScope)
			return
		}
		scope.CourseID = courseID
	case domain.ScopeOrg:
	default:
		AbortWithError(c, domain.ErrInvalidScope)
		return
	}

	var actorID snowflake.ID
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, domain.ErrInvalidMember)
			return
		}
		actorID = parsed
	}

	outcome := s.notificationSvc.Notify(c.Request.Context(), domain.NotifyRequest{
		OrgID:   orgID,
		Scope:   scope,
		Type:    "message",
		Title:   req.Title,
		Content: req.Content,
		Link:    req.Link,
		ActorID: actorID,
	})

	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}
