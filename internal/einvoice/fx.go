package einvoice

import "go.uber.org/fx"

var Module = fx.Module("einvoice",
	fx.Provide(NewBuilder),
)
