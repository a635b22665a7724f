package metrics_test

import (
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/metrics"
)

func TestVoice_SessionLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewVoice(reg)

	m.RecordSessionStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	m.RecordSessionEnded("disconnected", 30*time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("disconnected")))
}

func TestKitchen_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewKitchen(reg)

	m.ObserveRequest("recipe", time.Now(), nil)
	m.ObserveRequest("recipe", time.Now(), errors.New("quota"))
	m.ObserveRequest("search", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("recipe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("recipe", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("search", "ok")))
}

func TestNewRegistry_RegistersCollectorsOnce(t *testing.T) {
	reg := metrics.NewRegistry()

	assert.NotPanics(t, func() {
		metrics.NewVoice(reg)
		metrics.NewKitchen(reg)
	})
	assert.Panics(t, func() { metrics.NewVoice(reg) }, "duplicate registration must be rejected")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestModule_ServesMetrics(t *testing.T) {
	addr := freeAddr(t)
	cfg := &config.Config{Metrics: config.MetricsConfig{ListenAddr: addr}}

	var voice *metrics.Voice
	app := fxtest.New(t,
		fx.Supply(cfg, zaptest.NewLogger(t)),
		metrics.Module,
		fx.Populate(&voice),
	)
	app.RequireStart()
	defer app.RequireStop()

	voice.FramesSent.Add(3)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lumina_voice_frames_sent_total 3")
}

func TestModule_NoListenerWithoutAddr(t *testing.T) {
	var reg *prometheus.Registry
	app := fxtest.New(t,
		fx.Supply(&config.Config{}, zaptest.NewLogger(t)),
		metrics.Module,
		fx.Populate(&reg),
	)
	app.RequireStart()
	app.RequireStop()

	assert.NotNil(t, reg)
}
