package fetch

import (
	"go.uber.org/fx"
)

var Module = fx.Module("fetch",
	fx.Provide(
		NewFetcher,
	),
)
