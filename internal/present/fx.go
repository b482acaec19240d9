package present

import (
	"go.uber.org/fx"

	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

const presentersGroup = `group:"presenters"`

var Module = fx.Module("present",
	fx.Provide(
		NewSurface,
		fx.Annotate(
			func(s *Surface) krisinfo.Presenter { return s },
			fx.ResultTags(presentersGroup),
		),
	),
	fx.Invoke(registerSurface),
)

// WebhookModule adds the webhook presenter. Needs a WebhookConfig supplied.
var WebhookModule = fx.Module("webhook",
	fx.Provide(
		fx.Annotate(
			NewWebhook,
			fx.As(new(krisinfo.Presenter)),
			fx.ResultTags(presentersGroup),
		),
	),
)
