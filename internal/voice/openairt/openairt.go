// Package openairt connects voice sessions to the OpenAI Realtime API.
package openairt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/coder/websocket"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// DefaultModel is used when the configuration leaves the model empty.
const DefaultModel = "gpt-4o-realtime-preview"

// SampleRate is the only rate the pcm16 realtime format supports, in both
// directions.
const SampleRate = 24_000

const eventBuffer = 64

var _ voice.Dialer = (*Dialer)(nil)

// Option configures a Dialer.
type Option func(*openairt.ClientConfig)

// WithBaseURL overrides the realtime websocket endpoint.
func WithBaseURL(u string) Option {
	return func(c *openairt.ClientConfig) {
		if u != "" {
			c.BaseURL = u
		}
	}
}

// Dialer opens OpenAI Realtime channels.
type Dialer struct {
	logger *zap.Logger
	client *openairt.Client
}

// NewDialer creates a dialer authenticating with apiKey.
func NewDialer(apiKey string, logger *zap.Logger, opts ...Option) *Dialer {
	cfg := openairt.DefaultConfig(apiKey)
	for _, o := range opts {
		o(&cfg)
	}
	return &Dialer{
		logger: logger.Named("openai_realtime"),
		client: openairt.NewClientWithConfig(cfg),
	}
}

// Dial connects and configures the realtime session.
func (d *Dialer) Dial(ctx context.Context, cfg voice.ChannelConfig) (voice.Channel, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	d.logger.Info("Connecting to OpenAI Realtime API", zap.String("model", model))

	conn, err := d.client.Connect(ctx, openairt.WithModel(model))
	if err != nil {
		return nil, &voice.ConnectionError{Err: fmt.Errorf("openai realtime: connect: %w", err)}
	}

	if err := conn.SendMessage(ctx, sessionUpdate(cfg)); err != nil {
		_ = conn.Close()
		return nil, &voice.ConnectionError{Err: fmt.Errorf("openai realtime: configure session: %w", err)}
	}

	chCtx, cancel := context.WithCancel(context.Background())
	c := &channel{
		conn:   conn,
		logger: d.logger,
		events: make(chan voice.Event, eventBuffer),
		ctx:    chCtx,
		cancel: cancel,
	}
	go c.receiveLoop()

	d.logger.Info("Connected to OpenAI Realtime API",
		zap.String("model", model),
		zap.String("voice", cfg.Voice))

	return c, nil
}

func sessionUpdate(cfg voice.ChannelConfig) *openairt.SessionUpdateEvent {
	modalities := []openairt.Modality{openairt.ModalityText, openairt.ModalityAudio}
	if cfg.ResponseModality == "TEXT" {
		modalities = []openairt.Modality{openairt.ModalityText}
	}

	session := openairt.ClientSession{
		Modalities:        modalities,
		Instructions:      cfg.SystemInstruction,
		Voice:             voiceOf(cfg.Voice),
		InputAudioFormat:  openairt.AudioFormatPcm16,
		OutputAudioFormat: openairt.AudioFormatPcm16,
	}
	if cfg.InputTranscription {
		session.InputAudioTranscription = &openairt.InputAudioTranscription{
			Model: openai.Whisper1,
		}
	}

	return &openairt.SessionUpdateEvent{Session: session}
}

func voiceOf(name string) openairt.Voice {
	switch name {
	case "alloy":
		return openairt.VoiceAlloy
	case "echo":
		return openairt.VoiceEcho
	case "shimmer":
		return openairt.VoiceShimmer
	case "":
		return openairt.VoiceShimmer
	default:
		return openairt.Voice(name)
	}
}

type channel struct {
	conn   *openairt.Conn
	logger *zap.Logger
	events chan voice.Event

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (c *channel) Events() <-chan voice.Event {
	return c.events
}

func (c *channel) Send(ctx context.Context, chunk audio.EncodedOutboundChunk) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return net.ErrClosed
	}

	return c.conn.SendMessage(ctx, &openairt.InputAudioBufferAppendEvent{Audio: chunk.Data})
}

// Close is idempotent.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.conn.Close()
	c.cancel()
	if err != nil && !errors.Is(err, net.ErrClosed) && websocket.CloseStatus(err) == -1 {
		return fmt.Errorf("openai realtime: close: %w", err)
	}
	return nil
}

// receiveLoop owns events and closes it on exit.
func (c *channel) receiveLoop() {
	defer close(c.events)

	for {
		event, err := c.conn.ReadMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.logger.Info("OpenAI Realtime closed the connection")
				c.emit(voice.Event{Kind: voice.EventClosed})
			default:
				c.emit(voice.Event{Kind: voice.EventError, Err: fmt.Errorf("openai realtime: read: %w", err)})
			}
			return
		}

		if !c.handleServerEvent(event) {
			return
		}
	}
}

// handleServerEvent maps one server event. It returns false once the channel
// should stop reading.
func (c *channel) handleServerEvent(event openairt.ServerEvent) bool {
	c.logger.Debug("Received server event", zap.String("event_type", string(event.ServerEventType())))

	switch e := event.(type) {
	case openairt.ResponseAudioDeltaEvent:
		if e.Delta == "" {
			return true
		}
		return c.emit(voice.Event{
			Kind:  voice.EventAssistantAudio,
			Audio: audio.EncodedInboundChunk{Data: e.Delta, SampleRate: SampleRate},
		})

	case openairt.ResponseAudioTranscriptDoneEvent:
		return c.emit(voice.Event{Kind: voice.EventAssistantText, Text: e.Transcript})

	case openairt.ConversationItemInputAudioTranscriptionCompletedEvent:
		return c.emit(voice.Event{Kind: voice.EventUserText, Text: e.Transcript})

	case openairt.ConversationItemInputAudioTranscriptionFailedEvent:
		c.logger.Warn("User audio transcription failed",
			zap.String("item_id", e.ItemID),
			zap.String("error", e.Error.Message))

	case openairt.InputAudioBufferSpeechStartedEvent:
		// Server VAD heard the user; anything still playing is stale.
		return c.emit(voice.Event{Kind: voice.EventInterrupted})

	case openairt.ResponseDoneEvent:
		if usage := e.Response.Usage; usage != nil {
			c.logger.Info("Response completed",
				zap.Int("input_tokens", usage.InputTokens),
				zap.Int("output_tokens", usage.OutputTokens),
				zap.Int("input_audio_tokens", usage.InputTokenDetails.AudioTokens),
				zap.Int("output_audio_tokens", usage.OutputTokenDetails.AudioTokens))
		}

	case openairt.ErrorEvent:
		c.emit(voice.Event{Kind: voice.EventError, Err: fmt.Errorf("openai realtime: %s", e.Error.Message)})
		return false
	}
	return true
}

func (c *channel) emit(ev voice.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.ctx.Done():
		return false
	}
}
