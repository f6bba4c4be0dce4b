package customer

import (
	"github.com/facturacr/facturacr/internal/customer/repository"
	"github.com/facturacr/facturacr/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
