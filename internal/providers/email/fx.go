package email

import "go.uber.org/fx"

var Module = fx.Module("provider.email",
	fx.Provide(NewSMTP),
)
