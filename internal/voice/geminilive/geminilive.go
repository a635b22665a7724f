// Package geminilive connects voice sessions to the Gemini Live
// BidiGenerateContent websocket API.
//
// Audio goes up as base64 PCM media chunks. The model's audio comes back as
// inline data parts, and both sides of the conversation are transcribed.
// Transcription fragments are buffered and delivered as one line per turn.
package geminilive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

const (
	// DefaultURL is the public Gemini Live websocket endpoint.
	DefaultURL = "wss://generativelanguage.googleapis.com/ws"

	bidiPath = "/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	defaultKeepalive = 20 * time.Second
	pingTimeout      = 5 * time.Second
	eventBuffer      = 64
	// Inline audio parts can be large; the library default of 32 KiB is not
	// enough.
	readLimit = 16 << 20
)

var _ voice.Dialer = (*Dialer)(nil)

// Option configures a Dialer.
type Option func(*Dialer)

// WithURL overrides the websocket base URL.
func WithURL(u string) Option {
	return func(d *Dialer) {
		if u != "" {
			d.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithKeepalive sets the ping interval. Zero disables pings.
func WithKeepalive(interval time.Duration) Option {
	return func(d *Dialer) { d.keepalive = interval }
}

// Dialer opens Gemini Live channels.
type Dialer struct {
	apiKey    string
	baseURL   string
	keepalive time.Duration
	logger    *zap.Logger
}

// NewDialer creates a dialer authenticating with apiKey.
func NewDialer(apiKey string, logger *zap.Logger, opts ...Option) *Dialer {
	d := &Dialer{
		apiKey:    apiKey,
		baseURL:   DefaultURL,
		keepalive: defaultKeepalive,
		logger:    logger.Named("gemini_live"),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dial connects and sends the session setup. Audio may be sent as soon as it
// returns.
func (d *Dialer) Dial(ctx context.Context, cfg voice.ChannelConfig) (voice.Channel, error) {
	endpoint := fmt.Sprintf("%s%s?key=%s", d.baseURL, bidiPath, url.QueryEscape(d.apiKey))

	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPHeader: http.Header{"Content-Type": []string{"application/json"}},
	})
	if err != nil {
		return nil, &voice.ConnectionError{Err: fmt.Errorf("gemini live: dial: %w", err)}
	}
	conn.SetReadLimit(readLimit)

	chCtx, cancel := context.WithCancel(context.Background())
	c := &channel{
		conn:       conn,
		logger:     d.logger,
		events:     make(chan voice.Event, eventBuffer),
		ctx:        chCtx,
		cancel:     cancel,
		outputRate: cfg.OutputSampleRate,
	}
	if c.outputRate <= 0 {
		c.outputRate = audio.PlaybackSampleRate
	}

	if err := c.writeJSON(ctx, newSetup(cfg)); err != nil {
		cancel()
		_ = conn.Close(websocket.StatusInternalError, "setup failed")
		return nil, &voice.ConnectionError{Err: fmt.Errorf("gemini live: setup: %w", err)}
	}

	d.logger.Info("Connected to Gemini Live", zap.String("model", cfg.Model))

	go c.receiveLoop()
	if d.keepalive > 0 {
		go c.keepaliveLoop(d.keepalive)
	}

	return c, nil
}

func newSetup(cfg voice.ChannelConfig) setupMessage {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	modality := cfg.ResponseModality
	if modality == "" {
		modality = voice.ResponseModalityAudio
	}

	msg := setupMessage{Setup: setupConfig{
		Model:            model,
		GenerationConfig: generationConfig{ResponseModalities: []string{modality}},
	}}
	if cfg.Voice != "" {
		msg.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice}},
		}
	}
	if cfg.SystemInstruction != "" {
		msg.Setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		msg.Setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		msg.Setup.OutputAudioTranscription = &struct{}{}
	}
	return msg
}

type channel struct {
	conn       *websocket.Conn
	logger     *zap.Logger
	events     chan voice.Event
	outputRate int

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	// Owned by receiveLoop.
	userText      strings.Builder
	assistantText strings.Builder
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

	return c.writeJSON(ctx, realtimeInputMessage{
		RealtimeInput: realtimeInput{MediaChunks: []inlineData{{MIMEType: chunk.MimeType, Data: chunk.Data}}},
	})
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

	err := c.conn.Close(websocket.StatusNormalClosure, "session closed")
	c.cancel()
	if err != nil && !errors.Is(err, net.ErrClosed) && websocket.CloseStatus(err) == -1 {
		return fmt.Errorf("gemini live: close: %w", err)
	}
	return nil
}

func (c *channel) writeJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gemini live: marshal: %w", err)
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// receiveLoop owns events and closes it on exit.
func (c *channel) receiveLoop() {
	defer close(c.events)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.logger.Info("Gemini Live closed the connection")
				c.emit(voice.Event{Kind: voice.EventClosed})
			default:
				c.emit(voice.Event{Kind: voice.EventError, Err: fmt.Errorf("gemini live: read: %w", err)})
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Skipping malformed server message", zap.Error(err))
			continue
		}

		if !c.handle(&msg) {
			return
		}
	}
}

// handle dispatches one server message. It returns false once the channel
// should stop reading.
func (c *channel) handle(msg *serverMessage) bool {
	if msg.SetupComplete != nil {
		c.logger.Debug("Gemini Live setup complete")
	}
	if msg.GoAway != nil {
		c.logger.Warn("Gemini Live is about to disconnect", zap.String("time_left", msg.GoAway.TimeLeft))
	}
	if msg.Error != nil {
		text := msg.Error.Message
		if text == "" {
			text = "unknown error"
		}
		c.emit(voice.Event{Kind: voice.EventError, Err: fmt.Errorf("gemini live: %s (code %d)", text, msg.Error.Code)})
		return false
	}
	if msg.ServerContent != nil {
		return c.handleContent(msg.ServerContent)
	}
	return true
}

func (c *channel) handleContent(sc *serverContent) bool {
	if sc.InputTranscription != nil {
		c.userText.WriteString(sc.InputTranscription.Text)
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
				continue
			}
			// The model has started answering, so the user's line is final.
			if !c.flushUser() {
				return false
			}
			ev := voice.Event{
				Kind:  voice.EventAssistantAudio,
				Audio: audio.EncodedInboundChunk{Data: p.InlineData.Data, SampleRate: rateOf(p.InlineData.MIMEType, c.outputRate)},
			}
			if !c.emit(ev) {
				return false
			}
		}
	}

	if sc.OutputTranscription != nil {
		if !c.flushUser() {
			return false
		}
		c.assistantText.WriteString(sc.OutputTranscription.Text)
	}

	if sc.Interrupted {
		if !c.flushUser() || !c.flushAssistant() {
			return false
		}
		if !c.emit(voice.Event{Kind: voice.EventInterrupted}) {
			return false
		}
	}

	if sc.TurnComplete {
		if !c.flushUser() || !c.flushAssistant() {
			return false
		}
	}
	return true
}

func (c *channel) flushUser() bool {
	return c.flush(&c.userText, voice.EventUserText)
}

func (c *channel) flushAssistant() bool {
	return c.flush(&c.assistantText, voice.EventAssistantText)
}

func (c *channel) flush(b *strings.Builder, kind voice.EventKind) bool {
	text := strings.TrimSpace(b.String())
	b.Reset()
	if text == "" {
		return true
	}
	return c.emit(voice.Event{Kind: kind, Text: text})
}

// emit delivers ev unless the channel is shutting down.
func (c *channel) emit(ev voice.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *channel) keepaliveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, pingTimeout)
			if err := c.conn.Ping(pingCtx); err != nil && c.ctx.Err() == nil {
				c.logger.Debug("Keepalive ping failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// rateOf reads the rate parameter of an "audio/pcm;rate=N" mime type.
func rateOf(mimeType string, fallback int) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fallback
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return fallback
	}
	return rate
}
