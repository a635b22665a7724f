// Package voice runs the spoken conversation with the remote chef: it streams
// microphone audio out, schedules the assistant's speech for gap-free
// playback and keeps a short transcript.
package voice

import "go.uber.org/fx"

// Module provides the voice service. Devices and the Dialer come from the
// device and backend modules.
var Module = fx.Module("voice",
	fx.Provide(NewService),
)
