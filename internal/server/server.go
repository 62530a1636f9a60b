// Package server exposes the HTTP surface: course progress actions, the
// roster signup, the notification feed and rule administration.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/config"
	coursedomain "github.com/smallbiznis/academia/internal/course/domain"
	notificationdomain "github.com/smallbiznis/academia/internal/notification/domain"
	organizationdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	courseSvc       coursedomain.Service
	organizationSvc organizationdomain.Service
	automationSvc   automationdomain.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	CourseSvc       coursedomain.Service
	OrganizationSvc organizationdomain.Service
	AutomationSvc   automationdomain.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		courseSvc:       p.CourseSvc,
		organizationSvc: p.OrganizationSvc,
		automationSvc:   p.AutomationSvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OrgContext())

	// -------- Roster --------
	api.POST("/members", s.CreateMember)

	// -------- Courses --------
	api.POST("/courses", s.CreateCourse)
	api.POST("/courses/:id/lessons", s.AddLesson)
	api.POST("/courses/:id/publish", s.PublishCourse)
	api.POST("/courses/:id/enroll", s.Enroll)
	api.POST("/lessons/:id/complete", s.CompleteLesson)

	// -------- Messaging --------
	api.POST("/messages", s.SendMessage)

	// -------- Notifications --------
	api.GET("/members/:id/notifications", s.ListNotifications)
	api.POST("/members/:id/notifications/:notificationId/read", s.MarkNotificationRead)

	// -------- Automation rules --------
	api.GET("/automation/rules", s.ListRules)
	api.POST("/automation/rules", s.CreateRule)
	api.PATCH("/automation/rules/:id", s.SetRuleEnabled)
}
