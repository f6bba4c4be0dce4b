package audit

import (
	"github.com/facturacr/facturacr/internal/audit/repository"
	"github.com/facturacr/facturacr/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
