package migration

import (
	"context"

	"github.com/facturacr/facturacr/internal/authorization"
	"github.com/facturacr/facturacr/internal/config"
	"github.com/facturacr/facturacr/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, authz authorization.Service) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		company, err := seed.EnsureDefaultCompanyWithID(conn, cfg.DefaultCompanyID)
		if err != nil {
			return err
		}
		admin, err := seed.EnsureAdminUser(conn, company.ID)
		if err != nil {
			return err
		}
		return authz.AssignRole(context.Background(), company.ID.String(), admin.ID.String(), authorization.RoleAdmin)
	}),
)
