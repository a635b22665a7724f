package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Raikerian/go-lumina-kitchen/internal/metrics"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
	"github.com/Raikerian/go-lumina-kitchen/pkg/util"
)

// ErrCaptureEnded is returned when the microphone stops on its own.
var ErrCaptureEnded = NewVoiceError("microphone stopped unexpectedly")

// SessionConfig holds the per-session settings.
type SessionConfig struct {
	Channel           ChannelConfig
	FrameSize         int
	TranscriptWindow  int
	MaxSessionLength  time.Duration
	InactivityTimeout time.Duration
	DebugAudioDir     string
}

// SessionDeps are the collaborators a session talks to.
type SessionDeps struct {
	Logger     *zap.Logger
	Metrics    *metrics.Voice
	Microphone Microphone
	Speakers   Speakers
	Dialer     Dialer
	Observer   Observer
}

// Session is one voice conversation with the remote chef.
//
// Microphone frames flow through the outbound codec into the channel on one
// goroutine; inbound events are handled strictly in delivery order on
// another. Stop is safe from any goroutine and always runs the same
// sequence: stop capture, tear down playback, close the channel.
type Session struct {
	id       string
	cfg      SessionConfig
	logger   *zap.Logger
	metrics  *metrics.Voice
	mic      Microphone
	speakers Speakers
	dialer   Dialer
	observer Observer

	transcript *Transcript
	recorder   *recorder

	mu        sync.Mutex
	status    Status
	opened    bool
	startedAt time.Time
	capture   CaptureStream
	scheduler *Scheduler
	channel   Channel
	idle      *util.IdleTimer

	stopping      atomic.Bool
	stopRequested atomic.Bool
	cancelDial    context.CancelFunc
	cancel        context.CancelFunc
	group         *errgroup.Group
	stopOnce      sync.Once
	done          chan struct{}
	closeErr      error
}

// NewSession creates a session in the "Ready to cook" state.
func NewSession(cfg SessionConfig, deps SessionDeps) *Session {
	if deps.Observer == nil {
		deps.Observer = ObserverFuncs{}
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = audio.CaptureFrameSize
	}
	if cfg.Channel.InputSampleRate <= 0 {
		cfg.Channel.InputSampleRate = audio.CaptureSampleRate
	}
	if cfg.Channel.OutputSampleRate <= 0 {
		cfg.Channel.OutputSampleRate = audio.PlaybackSampleRate
	}

	id := uuid.NewString()
	logger := deps.Logger.Named("session").With(zap.String("session_id", id))

	return &Session{
		id:         id,
		cfg:        cfg,
		logger:     logger,
		metrics:    deps.Metrics,
		mic:        deps.Microphone,
		speakers:   deps.Speakers,
		dialer:     deps.Dialer,
		observer:   deps.Observer,
		transcript: NewTranscript(cfg.TranscriptWindow),
		recorder:   newRecorder(cfg.DebugAudioDir, id, logger),
		status:     StatusReady,
		done:       make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current user-visible status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Transcript returns the recent conversation lines.
func (s *Session) Transcript() []TranscriptLine {
	return s.transcript.Lines()
}

// Done is closed once the session has fully shut down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Ended reports whether the session has shut down.
func (s *Session) Ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Open acquires the microphone, the speakers and the remote channel, then
// starts streaming. It returns a *PermissionError or *ConnectionError when
// the session cannot start; the status reflects the failure and nothing is
// sent. ctx bounds the startup only.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return fmt.Errorf("session %s already opened", s.id)
	}
	s.opened = true
	s.mu.Unlock()

	s.setStatus(StatusInitializing)
	s.logger.Info("Opening voice session",
		zap.String("model", s.cfg.Channel.Model),
		zap.String("voice", s.cfg.Channel.Voice))

	capture, err := s.mic.Open(s.cfg.Channel.InputSampleRate, s.cfg.FrameSize)
	if err != nil {
		var perm *PermissionError
		if !errors.As(err, &perm) {
			err = &PermissionError{Err: err}
		}
		s.logger.Warn("Microphone unavailable", zap.Error(err))
		s.failOpen(StatusPermissionDenied, "permission_denied")
		return err
	}

	output, err := s.speakers.Open(s.cfg.Channel.OutputSampleRate)
	if err != nil {
		// Playback failures never end the session; transcripts still work.
		s.logger.Warn("Output device unavailable, continuing without audio", zap.Error(err))
		s.metrics.PlaybackErrors.Inc()
		output = nil
	}
	scheduler := NewScheduler(output, s.logger)

	// Stop cancels a dial that is still pending.
	dialCtx, cancelDial := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelDial = cancelDial
	s.mu.Unlock()
	if s.stopRequested.Load() {
		cancelDial()
	}

	channel, err := s.dialer.Dial(dialCtx, s.cfg.Channel)
	cancelDial()
	if err == nil && s.stopRequested.Load() {
		if closeErr := channel.Close(); closeErr != nil {
			s.logger.Warn("Failed to close remote channel", zap.Error(closeErr))
		}
		err = context.Canceled
	}
	if err != nil {
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			err = &ConnectionError{Err: err}
		}
		if stopErr := capture.Stop(); stopErr != nil {
			s.logger.Warn("Failed to release microphone", zap.Error(stopErr))
		}
		if tdErr := scheduler.Teardown(); tdErr != nil {
			s.logger.Warn("Failed to release output device", zap.Error(tdErr))
		}
		if s.stopRequested.Load() {
			s.logger.Info("Voice session stopped while connecting")
			s.failOpen(StatusDisconnected, "stopped")
			return err
		}
		s.logger.Error("Failed to open remote channel", zap.Error(err))
		s.failOpen(ConnectionErrorStatus(err), "connection_error")
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, gctx := errgroup.WithContext(runCtx)

	s.mu.Lock()
	s.capture = capture
	s.scheduler = scheduler
	s.channel = channel
	s.cancel = cancel
	s.group = group
	s.startedAt = time.Now()
	s.idle = util.NewIdleTimer(s.cfg.InactivityTimeout)
	s.mu.Unlock()

	s.metrics.RecordSessionStarted()
	s.setStatus(StatusActive)

	if err := capture.Start(); err != nil {
		s.logger.Error("Failed to start microphone capture", zap.Error(err))
		group.Go(func() error { return &PermissionError{Err: err} })
	} else {
		group.Go(func() error { return s.sendLoop(gctx) })
	}
	group.Go(func() error { return s.receiveLoop(gctx) })
	group.Go(func() error { return s.watchdog(gctx) })

	go s.run()

	if s.stopRequested.Load() {
		s.shutdown(nil)
	}

	s.logger.Info("Voice session active")
	return nil
}

// Stop ends the session and waits for shutdown to finish. It returns the
// channel close error, if any. Calling Stop more than once, or on a session
// that never opened, is safe.
func (s *Session) Stop() error {
	s.stopRequested.Store(true)

	s.mu.Lock()
	running := s.group != nil
	neverOpened := !s.opened
	s.opened = true
	cancelDial := s.cancelDial
	s.mu.Unlock()

	if cancelDial != nil {
		cancelDial()
	}

	switch {
	case neverOpened:
		s.failOpen(StatusDisconnected, "stopped")
	case running:
		s.shutdown(nil)
	}
	<-s.done
	return s.closeErr
}

// failOpen finishes a session that never became active.
func (s *Session) failOpen(status Status, outcome string) {
	s.stopOnce.Do(func() {
		s.setStatus(status)
		s.metrics.SessionsEnded.WithLabelValues(outcome).Inc()
		close(s.done)
	})
}

func (s *Session) run() {
	err := s.group.Wait()
	s.shutdown(err)
}

// shutdown releases everything in order: capture, playback, channel. Each
// step runs even if an earlier one failed.
func (s *Session) shutdown(cause error) {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.logger.Info("Ending voice session", zap.Error(cause))

		if err := s.capture.Stop(); err != nil {
			s.logger.Warn("Failed to stop microphone", zap.Error(err))
		}

		s.cancel()
		if err := s.group.Wait(); cause == nil {
			cause = err
		}
		s.idle.Stop()

		if err := s.scheduler.Teardown(); err != nil {
			s.logger.Warn("Failed to release output device", zap.Error(err))
		}

		if err := s.channel.Close(); err != nil {
			s.logger.Warn("Failed to close remote channel", zap.Error(err))
			s.closeErr = err
		}

		if _, err := s.recorder.flush(); err != nil {
			s.logger.Warn("Failed to save session audio", zap.Error(err))
		}

		status, outcome := finalStatus(cause)
		s.metrics.RecordSessionEnded(outcome, time.Since(s.startedAt))
		s.setStatus(status)
		s.logger.Info("Voice session ended",
			zap.String("status", status.String()),
			zap.String("outcome", outcome))

		close(s.done)
	})
}

func finalStatus(cause error) (Status, string) {
	var perm *PermissionError
	switch {
	case cause == nil:
		return StatusDisconnected, "stopped"
	case errors.Is(cause, ErrRemoteClosed):
		return StatusDisconnected, "remote_closed"
	case errors.Is(cause, ErrInactive):
		return StatusDisconnected, "inactive"
	case errors.Is(cause, ErrMaxSessionLimit):
		return StatusDisconnected, "max_length"
	case errors.As(cause, &perm), errors.Is(cause, ErrCaptureEnded):
		return Status{State: StateError, Reason: "Microphone error", Err: cause}, "capture_error"
	default:
		return ConnectionErrorStatus(cause), "connection_error"
	}
}

// sendLoop encodes microphone frames in capture order and sends them. It is
// the only caller of Channel.Send.
func (s *Session) sendLoop(ctx context.Context) error {
	frames := s.capture.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				if s.stopping.Load() {
					return nil
				}
				return ErrCaptureEnded
			}
			if err := s.channel.Send(ctx, audio.EncodeFrame(frame)); err != nil {
				if ctx.Err() != nil || s.stopping.Load() {
					return nil
				}
				return &ConnectionError{Err: fmt.Errorf("send audio: %w", err)}
			}
			s.metrics.FramesSent.Inc()
		}
	}
}

// receiveLoop handles inbound events strictly in delivery order.
func (s *Session) receiveLoop(ctx context.Context) error {
	events := s.channel.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrRemoteClosed
			}
			if err := s.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handleEvent(ev Event) error {
	switch ev.Kind {
	case EventAssistantAudio:
		s.idle.Touch()
		s.playChunk(ev.Audio)

	case EventAssistantText:
		s.idle.Touch()
		s.observer.TranscriptChanged(s.transcript.Append(SpeakerAssistant, ev.Text))

	case EventUserText:
		s.idle.Touch()
		s.observer.TranscriptChanged(s.transcript.Append(SpeakerUser, ev.Text))

	case EventInterrupted:
		s.idle.Touch()
		stopped := s.scheduler.Interrupt()
		s.metrics.Interruptions.Inc()
		s.logger.Debug("Playback interrupted", zap.Int("stopped_buffers", stopped))

	case EventClosed:
		return ErrRemoteClosed

	case EventError:
		err := ev.Err
		if err == nil {
			err = errors.New("remote channel reported an error")
		}
		return &ConnectionError{Err: err}

	default:
		s.logger.Debug("Ignoring unknown event", zap.Stringer("kind", ev.Kind))
	}
	return nil
}

// playChunk decodes and schedules one inbound chunk. Failures drop the chunk
// and never end the session.
func (s *Session) playChunk(chunk audio.EncodedInboundChunk) {
	if chunk.SampleRate == 0 {
		chunk.SampleRate = s.cfg.Channel.OutputSampleRate
	}

	buf, err := audio.DecodeChunk(chunk)
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		s.logger.Warn("Dropping malformed audio chunk", zap.Error(err))
		return
	}
	s.recorder.append(buf)

	if _, err := s.scheduler.Enqueue(buf); err != nil {
		s.metrics.PlaybackErrors.Inc()
		s.logger.Warn("Failed to schedule audio chunk", zap.Error(err))
		return
	}
	s.metrics.ChunksScheduled.Inc()
}

func (s *Session) watchdog(ctx context.Context) error {
	var maxLength <-chan time.Time
	if s.cfg.MaxSessionLength > 0 {
		timer := time.NewTimer(s.cfg.MaxSessionLength)
		defer timer.Stop()
		maxLength = timer.C
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.idle.Expired():
		return ErrInactive
	case <-maxLength:
		return ErrMaxSessionLimit
	}
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.observer.StatusChanged(status)
}
