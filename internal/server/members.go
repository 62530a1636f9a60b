package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/organization/domain"
)

func (s *Server) CreateMember(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	member, err := s.organizationSvc.CreateMember(c.Request.Context(), domain.CreateMemberRequest{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}
