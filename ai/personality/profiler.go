// Package personality infers a contact's communication style from their
// interaction history.
package personality

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/types"
)

// Thresholds are strict lower bounds on flag ratios, checked in the order
// Polite, Flirty, Informal, Commanding. Only the first exceeded one applies.
type Thresholds struct {
	Polite     float64 `yaml:"polite"`
	Flirty     float64 `yaml:"flirty"`
	Informal   float64 `yaml:"informal"`
	Commanding float64 `yaml:"commanding"`
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Polite:     0.7,
		Flirty:     0.5,
		Informal:   0.6,
		Commanding: 0.4,
	}
}

// Profile classifies records with DefaultThresholds.
func Profile(records []types.InteractionRecord) types.PersonalityType {
	return DefaultThresholds().Profile(records)
}

// Profile classifies records. Empty history is BALANCED.
func (th Thresholds) Profile(records []types.InteractionRecord) types.PersonalityType {
	if len(records) == 0 {
		return types.PersonalityBalanced
	}

	var polite, flirty, informal, commanding int
	for _, r := range records {
		if r.IsPolite {
			polite++
		}
		if r.IsFlirty {
			flirty++
		}
		if r.IsInformal {
			informal++
		}
		if r.IsCommanding {
			commanding++
		}
	}

	total := float64(len(records))
	switch {
	case float64(polite)/total > th.Polite:
		return types.PersonalityPolite
	case float64(flirty)/total > th.Flirty:
		return types.PersonalityFlirty
	case float64(informal)/total > th.Informal:
		return types.PersonalityCasual
	case float64(commanding)/total > th.Commanding:
		return types.PersonalityCommanding
	default:
		return types.PersonalityBalanced
	}
}

// Config configures a Profiler.
type Config struct {
	Thresholds Thresholds
	// Timeout bounds each history lookup.
	Timeout time.Duration
	Metrics metrics.Recorder
}

// DefaultConfig returns the default profiler configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
		Timeout:    200 * time.Millisecond,
	}
}

// Profiler profiles contacts from a history store.
type Profiler struct {
	history    history.InteractionReader
	thresholds Thresholds
	timeout    time.Duration
	metrics    metrics.Recorder
}

// NewProfiler creates a profiler over the given history.
func NewProfiler(h history.InteractionReader, cfg Config) *Profiler {
	def := DefaultConfig()
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = def.Thresholds
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Profiler{
		history:    h,
		thresholds: cfg.Thresholds,
		timeout:    cfg.Timeout,
		metrics:    metrics.OrNop(cfg.Metrics),
	}
}

// ProfileContact profiles a contact. Lookup errors and timeouts yield BALANCED.
func (p *Profiler) ProfileContact(ctx context.Context, contactID string) types.PersonalityType {
	if p.history == nil || contactID == "" {
		return types.PersonalityBalanced
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	records, err := p.history.GetInteractionHistory(ctx, contactID)
	if err != nil {
		reason := "error"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		slog.Warn("personality: history unavailable, using BALANCED",
			"contact_id", contactID,
			"reason", reason,
			"error", err,
		)
		p.metrics.RecordFallback("history", reason)
		return types.PersonalityBalanced
	}
	return p.thresholds.Profile(records)
}
