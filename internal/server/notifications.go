package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/notification/domain"
)

func (s *Server) ListNotifications(c *gin.Context) {
	pageSize := 0
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid value"))
			return
		}
		pageSize = parsed
	}

	resp, err := s.notificationSvc.Feed(c.Request.Context(), domain.FeedRequest{
		MemberID:   c.Param("id"),
		UnreadOnly: c.Query("unread") == "true",
		PageToken:  c.Query("page_token"),
		PageSize:   pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	err := s.notificationSvc.MarkRead(c.Request.Context(), domain.MarkReadRequest{
		MemberID:       c.Param("id"),
		NotificationID: c.Param("notificationId"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"read": true})
}
