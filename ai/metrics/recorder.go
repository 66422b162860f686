package metrics

import "time"

// Recorder is the metrics surface the engine depends on.
type Recorder interface {
	// RecordDecision records one facade operation.
	RecordDecision(operation, strategy, outcome string, latency time.Duration)
	// ObserveUrgency records the urgency of an analysed stimulus.
	ObserveUrgency(urgency float64)
	// RecordCallTransition records a call state change.
	RecordCallTransition(from, to string)
	// RecordLearnSignal records what happened to a learn signal (queued, stored, dropped, failed).
	RecordLearnSignal(outcome string)
	// RecordFallback records a collaborator that was replaced by its default.
	RecordFallback(collaborator, reason string)
	// RecordRemoteCall records a remote model call.
	RecordRemoteCall(model string, latency time.Duration, success bool)
	// RecordCacheHit records a cache hit.
	RecordCacheHit(cacheType string)
	// RecordCacheMiss records a cache miss.
	RecordCacheMiss(cacheType string)
}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string, string, time.Duration) {}
func (nopRecorder) ObserveUrgency(float64)                               {}
func (nopRecorder) RecordCallTransition(string, string)                  {}
func (nopRecorder) RecordLearnSignal(string)                             {}
func (nopRecorder) RecordFallback(string, string)                        {}
func (nopRecorder) RecordRemoteCall(string, time.Duration, bool)         {}
func (nopRecorder) RecordCacheHit(string)                                {}
func (nopRecorder) RecordCacheMiss(string)                               {}

// OrNop returns r, or a no-op recorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop()
	}
	return r
}
