// Package device binds the voice session to the local microphone and
// speakers.
package device

import (
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

// Module provides the audio devices.
var Module = fx.Module("device",
	fx.Provide(
		fx.Annotate(NewMicrophone, fx.As(new(voice.Microphone))),
		fx.Annotate(NewSpeakers, fx.As(new(voice.Speakers))),
	),
)
