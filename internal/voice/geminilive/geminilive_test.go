package geminilive_test

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
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/geminilive"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

const waitFor = 3 * time.Second

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

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

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
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

func content(sc map[string]any) map[string]any {
	return map[string]any{"serverContent": sc}
}

func testConfig() voice.ChannelConfig {
	return voice.ChannelConfig{
		Model:               "gemini-live-test",
		ResponseModality:    "AUDIO",
		SystemInstruction:   "You are a chef.",
		Voice:               "Kore",
		InputTranscription:  true,
		OutputTranscription: true,
		InputSampleRate:     16000,
		OutputSampleRate:    24000,
	}
}

func dial(t *testing.T, srv *httptest.Server) voice.Channel {
	t.Helper()
	d := geminilive.NewDialer("test-key", zaptest.NewLogger(t), geminilive.WithURL(wsURL(srv)), geminilive.WithKeepalive(0))
	ch, err := d.Dial(context.Background(), testConfig())
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

// session runs the setup exchange and then the given script.
func session(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	return startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		writeJSON(t, conn, map[string]any{"setupComplete": map[string]any{}})
		script(conn)
	})
}

func TestDial_SendsSetup(t *testing.T) {
	type setupMsg struct {
		Setup struct {
			Model            string `json:"model"`
			GenerationConfig struct {
				ResponseModalities []string `json:"responseModalities"`
				SpeechConfig       struct {
					VoiceConfig struct {
						PrebuiltVoiceConfig struct {
							VoiceName string `json:"voiceName"`
						} `json:"prebuiltVoiceConfig"`
					} `json:"voiceConfig"`
				} `json:"speechConfig"`
			} `json:"generationConfig"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			InputAudioTranscription  *map[string]any `json:"inputAudioTranscription"`
			OutputAudioTranscription *map[string]any `json:"outputAudioTranscription"`
		} `json:"setup"`
	}

	got := make(chan setupMsg, 1)
	keys := make(chan string, 1)
	srv := startServer(t, func(conn *websocket.Conn, r *http.Request) {
		keys <- r.URL.Query().Get("key")
		var msg setupMsg
		readJSON(t, conn, &msg)
		got <- msg
		<-conn.CloseRead(context.Background()).Done()
	})

	dial(t, srv)

	select {
	case msg := <-got:
		assert.Equal(t, "models/gemini-live-test", msg.Setup.Model)
		assert.Equal(t, []string{"AUDIO"}, msg.Setup.GenerationConfig.ResponseModalities)
		assert.Equal(t, "Kore", msg.Setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
		require.Len(t, msg.Setup.SystemInstruction.Parts, 1)
		assert.Equal(t, "You are a chef.", msg.Setup.SystemInstruction.Parts[0].Text)
		assert.NotNil(t, msg.Setup.InputAudioTranscription)
		assert.NotNil(t, msg.Setup.OutputAudioTranscription)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for setup")
	}
	assert.Equal(t, "test-key", <-keys)
}

func TestDial_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	d := geminilive.NewDialer("bad-key", zaptest.NewLogger(t), geminilive.WithURL(wsURL(srv)))
	_, err := d.Dial(context.Background(), testConfig())

	var connErr *voice.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestSend_RealtimeInput(t *testing.T) {
	type mediaMsg struct {
		RealtimeInput struct {
			MediaChunks []struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"mediaChunks"`
		} `json:"realtimeInput"`
	}

	got := make(chan mediaMsg, 1)
	srv := session(t, func(conn *websocket.Conn) {
		var msg mediaMsg
		readJSON(t, conn, &msg)
		got <- msg
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)
	chunk := audio.EncodeFrame(audio.AudioFrame{Samples: []float32{0.5, -0.5}, SampleRate: 16000})
	require.NoError(t, ch.Send(context.Background(), chunk))

	select {
	case msg := <-got:
		require.Len(t, msg.RealtimeInput.MediaChunks, 1)
		assert.Equal(t, "audio/pcm;rate=16000", msg.RealtimeInput.MediaChunks[0].MIMEType)
		assert.Equal(t, chunk.Data, msg.RealtimeInput.MediaChunks[0].Data)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for audio")
	}
}

func TestSend_AfterCloseFails(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	assert.Error(t, ch.Send(context.Background(), audio.EncodedOutboundChunk{Data: "AAA=", MimeType: "audio/pcm;rate=16000"}))
}

func TestEvents_AudioAndTranscripts(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		writeJSON(t, conn, content(map[string]any{"inputTranscription": map[string]any{"text": "How long do I "}}))
		writeJSON(t, conn, content(map[string]any{"inputTranscription": map[string]any{"text": "rest a steak?"}}))
		writeJSON(t, conn, content(map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{
				{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "AAABAA=="}},
			}},
		}))
		writeJSON(t, conn, content(map[string]any{"outputTranscription": map[string]any{"text": "About five "}}))
		writeJSON(t, conn, content(map[string]any{"outputTranscription": map[string]any{"text": "minutes."}}))
		writeJSON(t, conn, content(map[string]any{"turnComplete": true}))
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	ev := nextEvent(t, ch)
	assert.Equal(t, voice.EventUserText, ev.Kind)
	assert.Equal(t, "How long do I rest a steak?", ev.Text)

	ev = nextEvent(t, ch)
	assert.Equal(t, voice.EventAssistantAudio, ev.Kind)
	assert.Equal(t, audio.EncodedInboundChunk{Data: "AAABAA==", SampleRate: 24000}, ev.Audio)

	ev = nextEvent(t, ch)
	assert.Equal(t, voice.EventAssistantText, ev.Kind)
	assert.Equal(t, "About five minutes.", ev.Text)
}

func TestEvents_Interrupted(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		writeJSON(t, conn, content(map[string]any{"outputTranscription": map[string]any{"text": "First you"}}))
		writeJSON(t, conn, content(map[string]any{"interrupted": true}))
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	ev := nextEvent(t, ch)
	assert.Equal(t, voice.EventAssistantText, ev.Kind)
	assert.Equal(t, "First you", ev.Text)
	assert.Equal(t, voice.EventInterrupted, nextEvent(t, ch).Kind)
}

func TestEvents_ServerError(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		writeJSON(t, conn, map[string]any{"error": map[string]any{"code": 429, "message": "quota exceeded"}})
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	ev := nextEvent(t, ch)
	assert.Equal(t, voice.EventError, ev.Kind)
	require.Error(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "quota exceeded")
}

func TestEvents_RemoteClose(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	})

	ch := dial(t, srv)

	assert.Equal(t, voice.EventClosed, nextEvent(t, ch).Kind)
	select {
	case _, ok := <-ch.Events():
		assert.False(t, ok, "events must be closed after the remote hangs up")
	case <-time.After(waitFor):
		t.Fatal("events not closed")
	}
}

func TestEvents_SkipsMalformedMessages(t *testing.T) {
	srv := session(t, func(conn *websocket.Conn) {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = conn.Write(ctx, websocket.MessageText, []byte("{not json"))
		writeJSON(t, conn, content(map[string]any{"interrupted": true}))
		<-conn.CloseRead(context.Background()).Done()
	})

	ch := dial(t, srv)

	assert.Equal(t, voice.EventInterrupted, nextEvent(t, ch).Kind)
}
