package reports

import (
	"github.com/facturacr/facturacr/internal/reports/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reports.service",
	fx.Provide(service.NewService),
)
