package migration

import (
	"strings"

	automationdomain "github.com/smallbiznis/academia/internal/automation/domain"
	"github.com/smallbiznis/academia/internal/config"
	coursedomain "github.com/smallbiznis/academia/internal/course/domain"
	notificationdomain "github.com/smallbiznis/academia/internal/notification/domain"
	organizationdomain "github.com/smallbiznis/academia/internal/organization/domain"
	"github.com/smallbiznis/academia/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite fall back to gorm's auto migration.
			if err := conn.AutoMigrate(
				&organizationdomain.Organization{},
				&organizationdomain.Member{},
				&coursedomain.Course{},
				&coursedomain.Lesson{},
				&coursedomain.Enrollment{},
				&coursedomain.LessonCompletion{},
				&automationdomain.AutomationRule{},
				&automationdomain.DeliveryRecord{},
				&notificationdomain.Notification{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureMainOrgWithID(conn, cfg.DefaultOrgID)
		}
		return seed.EnsureMainOrg(conn)
	}),
)
