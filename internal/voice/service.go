package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/metrics"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// ResponseModalityAudio asks the remote service to answer with speech.
const ResponseModalityAudio = "AUDIO"

// Service owns at most one voice session at a time.
type Service struct {
	logger   *zap.Logger
	cfg      *config.Config
	metrics  *metrics.Voice
	mic      Microphone
	speakers Speakers
	dialer   Dialer

	mu      sync.Mutex
	current *Session
}

// ServiceParams holds dependencies for NewService.
type ServiceParams struct {
	fx.In
	Logger     *zap.Logger
	Cfg        *config.Config
	Metrics    *metrics.Voice
	Microphone Microphone
	Speakers   Speakers
	Dialer     Dialer
	LC         fx.Lifecycle
}

// NewService creates the voice service. A running session is stopped when the
// application shuts down.
func NewService(p ServiceParams) *Service {
	s := &Service{
		logger:   p.Logger.Named("voice"),
		cfg:      p.Cfg,
		metrics:  p.Metrics,
		mic:      p.Microphone,
		speakers: p.Speakers,
		dialer:   p.Dialer,
	}

	p.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := s.Stop(); err != nil && !errors.Is(err, ErrNoSession) {
				s.logger.Warn("Error stopping voice session on shutdown", zap.Error(err))
			}
			return nil
		},
	})

	return s
}

// SessionConfig derives the per-session settings from configuration.
func (s *Service) SessionConfig() SessionConfig {
	vc := s.cfg.Voice
	ch := ChannelConfig{
		Model:               s.cfg.Gemini.LiveModel,
		ResponseModality:    ResponseModalityAudio,
		SystemInstruction:   vc.SystemInstruction,
		Voice:               vc.Voice,
		InputTranscription:  true,
		OutputTranscription: true,
		InputSampleRate:     vc.InputSampleRate,
		OutputSampleRate:    vc.OutputSampleRate,
	}
	if vc.Provider == config.ProviderOpenAI {
		ch.Model = s.cfg.OpenAI.Model
		ch.Voice = s.cfg.OpenAI.Voice
		// pcm16 realtime audio is 24kHz in both directions.
		ch.InputSampleRate = audio.PlaybackSampleRate
		ch.OutputSampleRate = audio.PlaybackSampleRate
	}

	return SessionConfig{
		Channel:           ch,
		FrameSize:         vc.FrameSize,
		TranscriptWindow:  vc.TranscriptWindow,
		MaxSessionLength:  vc.MaxSessionLength,
		InactivityTimeout: vc.InactivityTimeout,
		DebugAudioDir:     vc.DebugAudioDir,
	}
}

// Start opens a new session reporting to obs. The session is returned even
// when opening fails so callers can read its final status.
func (s *Service) Start(ctx context.Context, obs Observer) (*Session, error) {
	s.mu.Lock()
	if s.current != nil && !s.current.Ended() {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}

	session := NewSession(s.SessionConfig(), SessionDeps{
		Logger:     s.logger,
		Metrics:    s.metrics,
		Microphone: s.mic,
		Speakers:   s.speakers,
		Dialer:     s.dialer,
		Observer:   obs,
	})
	s.current = session
	s.mu.Unlock()

	if err := session.Open(ctx); err != nil {
		s.logger.Warn("Voice session failed to start",
			zap.String("session_id", session.ID()),
			zap.String("status", session.Status().String()),
			zap.Error(err))
		return session, err
	}

	return session, nil
}

// Current returns the most recent session, or nil.
func (s *Service) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stop ends the running session.
func (s *Service) Stop() error {
	s.mu.Lock()
	session := s.current
	s.mu.Unlock()

	if session == nil || session.Ended() {
		return ErrNoSession
	}
	return session.Stop()
}
