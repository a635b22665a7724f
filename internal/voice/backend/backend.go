// Package backend chooses the remote voice service for a session.
package backend

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/geminilive"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/openairt"
)

// Module provides the voice.Dialer.
var Module = fx.Module("voice_backend",
	fx.Provide(
		fx.Annotate(
			NewDialer,
			fx.As(new(voice.Dialer)),
		),
	),
)

// Dialer resolves the configured provider and its API key on every Dial, so
// commands that never talk to the voice service do not need a key.
type Dialer struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDialer creates a Dialer.
func NewDialer(cfg *config.Config, logger *zap.Logger) *Dialer {
	return &Dialer{cfg: cfg, logger: logger}
}

// Dial implements voice.Dialer. A missing key fails as a *voice.ConnectionError.
func (d *Dialer) Dial(ctx context.Context, cc voice.ChannelConfig) (voice.Channel, error) {
	key, err := d.cfg.VoiceAPIKey()
	if err != nil {
		return nil, &voice.ConnectionError{Err: err}
	}

	switch d.cfg.Voice.Provider {
	case config.ProviderOpenAI:
		return openairt.NewDialer(key, d.logger).Dial(ctx, cc)
	default:
		return geminilive.NewDialer(key, d.logger, geminilive.WithURL(d.cfg.Gemini.LiveURL)).Dial(ctx, cc)
	}
}
