package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *PrometheusExporter) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordDecision("process", "rule", "ok", time.Millisecond)
	exporter.RecordDecision("process", "rule", "ok", 2*time.Millisecond)
	exporter.RecordDecision("message", "remote", "fallback", 500*time.Millisecond)
	exporter.RecordCallTransition("RINGING", "EVALUATING")
	exporter.RecordLearnSignal("queued")
	exporter.RecordLearnSignal("dropped")
	exporter.RecordFallback("history", "timeout")
	exporter.RecordRemoteCall("deepseek-chat", 300*time.Millisecond, false)
	exporter.RecordCacheHit("lexical")
	exporter.RecordCacheHit("lexical")
	exporter.RecordCacheMiss("lexical")
	exporter.ObserveUrgency(0.9)

	body := scrape(t, exporter)

	tests := []struct {
		name string
		line string
	}{
		{"decisions", `contextsense_engine_decisions_total{operation="process",outcome="ok",strategy="rule"} 2`},
		{"fallback decision", `contextsense_engine_decisions_total{operation="message",outcome="fallback",strategy="remote"} 1`},
		{"call transition", `contextsense_engine_call_transitions_total{from="RINGING",to="EVALUATING"} 1`},
		{"learn dropped", `contextsense_engine_learn_signals_total{outcome="dropped"} 1`},
		{"fallbacks", `contextsense_engine_fallbacks_total{collaborator="history",reason="timeout"} 1`},
		{"remote calls", `contextsense_engine_remote_calls_total{model="deepseek-chat",status="error"} 1`},
		{"cache hits", `contextsense_engine_cache_hits_total{cache_type="lexical"} 2`},
		{"cache misses", `contextsense_engine_cache_misses_total{cache_type="lexical"} 1`},
		{"urgency", `contextsense_engine_urgency_count 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, body, tt.line)
		})
	}
}

func TestPrometheusExporter_SharedRegistry(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	assert.NotNil(t, exporter.Registry())

	families, err := exporter.Registry().Gather()
	require.NoError(t, err)
	// Vectors without observations are not gathered; the plain histogram is.
	assert.Len(t, families, 1)
}

func TestNop(t *testing.T) {
	r := OrNop(nil)
	assert.NotPanics(t, func() {
		r.RecordDecision("process", "rule", "ok", time.Millisecond)
		r.ObserveUrgency(1)
		r.RecordCallTransition("a", "b")
		r.RecordLearnSignal("queued")
		r.RecordFallback("history", "error")
		r.RecordRemoteCall("m", time.Second, true)
		r.RecordCacheHit("x")
		r.RecordCacheMiss("x")
	})

	exporter := NewPrometheusExporter(Config{})
	assert.Same(t, exporter, OrNop(exporter))
}
