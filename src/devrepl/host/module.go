package host

import "go.uber.org/fx"

// Module provides the reference host container, its sample components and bootstrap types.
var Module = fx.Options(
	fx.Provide(provideInventory),
	fx.Provide(provideGreeter),
	fx.Provide(provideUptime),
	fx.Provide(NewContainer),
	fx.Invoke(RegisterBootstrap),
)
