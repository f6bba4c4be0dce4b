package auth

import (
	"time"

	"github.com/facturacr/facturacr/internal/auth/repository"
	"github.com/facturacr/facturacr/internal/auth/service"
	"github.com/facturacr/facturacr/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(repository.New),
	fx.Provide(provideServiceConfig),
	fx.Provide(service.New),
)

func provideServiceConfig(cfg config.Config) service.Config {
	return service.Config{
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
	}
}
