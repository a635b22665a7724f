package openairt_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/openairt"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

const waitFor = 3 * time.Second

func startServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Logf("writeJSON: %v (may be expected on close)", err)
	}
}

func dial(t *testing.T, srv *httptest.Server) voice.Channel {
	t.Helper()
	d := openairt.NewDialer("test-key", zaptest.NewLogger(t),
		openairt.WithBaseURL("ws"+strings.TrimPrefix(srv.URL, "http")))
	ch, err := d.Dial(context.Background(), voice.ChannelConfig{
		Model:              "gpt-test",
		SystemInstruction:  "You are a chef.",
		Voice:              "alloy",
		InputTranscription: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func nextEvent(t *testing.T, ch voice.Channel) voice.Event {
	t.Helper()
	select {
	case ev, ok := <-ch.Events():
		require.True(t, ok, "events closed unexpectedly")
		return ev
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for event")
		return voice.Event{}
	}
}

func TestDial_ConfiguresSession(t *testing.T) {
	updates := make(chan map[string]any, 1)
	models := make(chan string, 1)
	srv := startServer(t, func(conn *websocket.Conn, r *http.Request) {
		models <- r.URL.Query().Get("model")
		updates <- readJSON(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	dial(t, srv)

	assert.Equal(t, "gpt-test", <-models)
	select {
	case msg := <-updates:
		assert.Equal(t, "session.update", msg["type"])
		session, ok := msg["session"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "You are a chef.", session["instructions"])
		assert.Equal(t, "alloy", session["voice"])
		assert.Equal(t, "pcm16", session["output_audio_format"])
		assert.NotNil(t, session["input_audio_transcription"])
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for session.update")
	}
}

func TestSend_AppendsAudioBuffer(t *testing.T) {
	appends := make(chan map[string]any, 1)
	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readJSON(t, conn) // session.update
		appends <- readJSON(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)
	chunk := audio.EncodeFrame(audio.AudioFrame{Samples: []float32{0.25, -0.25}, SampleRate: 24000})
	require.NoError(t, ch.Send(context.Background(), chunk))

	select {
	case msg := <-appends:
		assert.Equal(t, "input_audio_buffer.append", msg["type"])
		assert.Equal(t, chunk.Data, msg["audio"])
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for audio append")
	}
}

func TestEvents_Mapping(t *testing.T) {
	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readJSON(t, conn)
		writeJSON(t, conn, map[string]any{
			"type": "input_audio_buffer.speech_started", "event_id": "e1",
			"audio_start_ms": 100, "item_id": "item1",
		})
		writeJSON(t, conn, map[string]any{
			"type": "conversation.item.input_audio_transcription.completed", "event_id": "e2",
			"item_id": "item1", "content_index": 0, "transcript": "Is my pan hot enough?",
		})
		writeJSON(t, conn, map[string]any{
			"type": "response.audio.delta", "event_id": "e3",
			"response_id": "r1", "item_id": "item2", "output_index": 0, "content_index": 0,
			"delta": "AAABAA==",
		})
		writeJSON(t, conn, map[string]any{
			"type": "response.audio_transcript.done", "event_id": "e4",
			"response_id": "r1", "item_id": "item2", "output_index": 0, "content_index": 0,
			"transcript": "Flick in a drop of water.",
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	assert.Equal(t, voice.EventInterrupted, nextEvent(t, ch).Kind)

	ev := nextEvent(t, ch)
	assert.Equal(t, voice.EventUserText, ev.Kind)
	assert.Equal(t, "Is my pan hot enough?", ev.Text)

	ev = nextEvent(t, ch)
	assert.Equal(t, voice.EventAssistantAudio, ev.Kind)
	assert.Equal(t, audio.EncodedInboundChunk{Data: "AAABAA==", SampleRate: openairt.SampleRate}, ev.Audio)

	ev = nextEvent(t, ch)
	assert.Equal(t, voice.EventAssistantText, ev.Kind)
	assert.Equal(t, "Flick in a drop of water.", ev.Text)
}

func TestEvents_Error(t *testing.T) {
	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readJSON(t, conn)
		writeJSON(t, conn, map[string]any{
			"type": "error", "event_id": "e1",
			"error": map[string]any{"type": "invalid_request_error", "message": "bad session"},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	ev := nextEvent(t, ch)
	assert.Equal(t, voice.EventError, ev.Kind)
	require.Error(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "bad session")
}

func TestClose_Idempotent(t *testing.T) {
	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readJSON(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Error(t, ch.Send(context.Background(), audio.EncodedOutboundChunk{Data: "AAA="}))
}

func TestDial_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := openairt.NewDialer("bad-key", zaptest.NewLogger(t),
		openairt.WithBaseURL("ws"+strings.TrimPrefix(srv.URL, "http")))
	_, err := d.Dial(context.Background(), voice.ChannelConfig{})

	var connErr *voice.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}
