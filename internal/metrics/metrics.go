// Package metrics defines the Prometheus collectors for the voice chef and
// the kitchen services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lumina"

// Voice contains the voice session collectors.
type Voice struct {
	FramesSent      prometheus.Counter
	ChunksScheduled prometheus.Counter
	DecodeErrors    prometheus.Counter
	PlaybackErrors  prometheus.Counter
	Interruptions   prometheus.Counter
	ActiveSessions  prometheus.Gauge
	SessionsEnded   *prometheus.CounterVec
	SessionDuration prometheus.Histogram
}

// NewVoice creates and registers the voice collectors on reg.
func NewVoice(reg prometheus.Registerer) *Voice {
	f := promauto.With(reg)
	return &Voice{
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_frames_sent_total",
			Help:      "Total number of microphone frames sent to the remote channel",
		}),
		ChunksScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_chunks_scheduled_total",
			Help:      "Total number of assistant audio chunks scheduled for playback",
		}),
		DecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_decode_errors_total",
			Help:      "Total number of inbound audio chunks dropped as malformed",
		}),
		PlaybackErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_playback_errors_total",
			Help:      "Total number of audio chunks that could not be scheduled on the output device",
		}),
		Interruptions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_interruptions_total",
			Help:      "Total number of barge-in interruptions signalled by the remote service",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_active_sessions",
			Help:      "Number of voice sessions currently open",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_ended_total",
			Help:      "Total number of voice sessions by final state",
		}, []string{"outcome"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_session_duration_seconds",
			Help:      "Duration of voice sessions",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 900},
		}),
	}
}

// RecordSessionStarted marks a session as open.
func (m *Voice) RecordSessionStarted() {
	m.ActiveSessions.Inc()
}

// RecordSessionEnded marks a session as closed with the given outcome.
func (m *Voice) RecordSessionEnded(outcome string, d time.Duration) {
	m.ActiveSessions.Dec()
	m.SessionsEnded.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(d.Seconds())
}

// Kitchen contains the recipe service collectors.
type Kitchen struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SearchCacheHits prometheus.Counter
	ImageFallbacks  prometheus.Counter
}

// NewKitchen creates and registers the kitchen collectors on reg.
func NewKitchen(reg prometheus.Registerer) *Kitchen {
	f := promauto.With(reg)
	return &Kitchen{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_requests_total",
			Help:      "Total number of generative requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kitchen_request_duration_seconds",
			Help:      "Duration of generative requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SearchCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_search_cache_hits_total",
			Help:      "Total number of searches answered from the cache",
		}),
		ImageFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_image_fallbacks_total",
			Help:      "Total number of recipes that fell back to the placeholder image",
		}),
	}
}

// ObserveRequest records one generative request.
func (m *Kitchen) ObserveRequest(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
