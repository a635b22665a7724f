package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/backend"
)

func TestDialer_MissingKey(t *testing.T) {
	tests := map[string]string{
		"gemini": config.ProviderGemini,
		"openai": config.ProviderOpenAI,
	}

	for name, provider := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Voice.Provider = provider

			_, err := backend.NewDialer(cfg, zaptest.NewLogger(t)).Dial(context.Background(), voice.ChannelConfig{})

			var connErr *voice.ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.ErrorIs(t, err, config.ErrMissingAPIKey)
		})
	}
}

func TestDialer_Gemini(t *testing.T) {
	keys := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.URL.Query().Get("key")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")
		<-conn.CloseRead(context.Background()).Done()
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Gemini.APIKey = "gemini-key"
	cfg.Gemini.LiveURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ch, err := backend.NewDialer(cfg, zaptest.NewLogger(t)).Dial(context.Background(), voice.ChannelConfig{Model: "live"})
	require.NoError(t, err)
	defer ch.Close()

	assert.Equal(t, "gemini-key", <-keys)
}
