package company

import (
	"github.com/facturacr/facturacr/internal/company/repository"
	"github.com/facturacr/facturacr/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
