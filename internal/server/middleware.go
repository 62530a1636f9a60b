package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/orgcontext"
	"go.uber.org/zap"
)

const HeaderOrg = "X-Org-ID"

// OrgContext resolves the active tenant from the X-Org-ID header and
// injects it into the request context. Requests without a valid tenant
// are rejected before any handler runs.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if raw == "" && s.cfg.DefaultOrgID != 0 {
			raw = snowflake.ID(s.cfg.DefaultOrgID).String()
		}
		if raw == "" {
			AbortWithError(c, newValidationError("org", "invalid_organization", "missing organization"))
			return
		}

		orgID, err := snowflake.ParseString(raw)
		if err != nil || orgID == 0 {
			AbortWithError(c, newValidationError("org", "invalid_organization", "invalid organization"))
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
