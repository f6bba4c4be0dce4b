package catalog

import (
	"github.com/facturacr/facturacr/internal/catalog/repository"
	"github.com/facturacr/facturacr/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
