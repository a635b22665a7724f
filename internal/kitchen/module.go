package kitchen

import (
	"go.uber.org/fx"
)

// Module provides the kitchen service backed by Gemini.
var Module = fx.Module("kitchen",
	fx.Provide(
		fx.Annotate(NewGenAIGenerator, fx.As(new(Generator))),
		NewService,
	),
)
