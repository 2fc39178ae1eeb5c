package render

import (
	"go.uber.org/fx"

	"github.com/estateflow/publisher/internal/domain"
)

// Module provides the text renderer for fx DI
var Module = fx.Module("render",
	fx.Provide(
		fx.Annotate(NewRenderer, fx.As(new(domain.TextRenderer))),
	),
)
