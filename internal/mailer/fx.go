package mailer

import (
	"github.com/facturacr/facturacr/internal/mailer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mailer.service",
	fx.Provide(service.New),
)
