// Package learning delivers fire-and-forget learn signals to the history store.
package learning

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/types"
)

// Source identifies the interaction that produced a signal.
type Source string

const (
	SourceProcess Source = "process"
	SourceMessage Source = "message"
	SourceCall    Source = "call"
)

// Signal is one completed interaction.
type Signal struct {
	Source      Source
	ContactID   string
	DisplayName string
	// Record is nil for interactions without text, such as calls.
	Record    *types.InteractionRecord
	Timestamp time.Time
}

// Emitter accepts learn signals without blocking.
type Emitter interface {
	// Emit enqueues a signal and reports whether it was accepted.
	Emit(sig Signal) bool
}

// Config configures a Collector.
type Config struct {
	// QueueSize bounds the number of pending signals.
	QueueSize int
	// WriteTimeout bounds each store write.
	WriteTimeout time.Duration
	Metrics      metrics.Recorder
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		WriteTimeout: 2 * time.Second,
	}
}

// Collector drains learn signals into the history store from a background worker.
// Signals arriving while the queue is full are dropped.
type Collector struct {
	writer       history.InteractionWriter
	refresher    history.ContactRefresher // nil when the writer keeps no names
	queue        chan Signal
	writeTimeout time.Duration
	metrics      metrics.Recorder

	mu     sync.RWMutex
	closed bool
	bgWg   sync.WaitGroup
}

// NewCollector starts a collector writing into w.
func NewCollector(w history.InteractionWriter, cfg Config) *Collector {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	c := &Collector{
		writer:       w,
		queue:        make(chan Signal, cfg.QueueSize),
		writeTimeout: cfg.WriteTimeout,
		metrics:      metrics.OrNop(cfg.Metrics),
	}
	if r, ok := w.(history.ContactRefresher); ok {
		c.refresher = r
	}

	c.bgWg.Add(1)
	go c.run()
	return c
}

// Emit enqueues sig. It never blocks; a full or closed collector drops the signal.
func (c *Collector) Emit(sig Signal) bool {
	if sig.ContactID == "" {
		return false
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.metrics.RecordLearnSignal("dropped")
		return false
	}
	select {
	case c.queue <- sig:
		c.metrics.RecordLearnSignal("queued")
		return true
	default:
		slog.Warn("learning: queue full, dropping signal",
			"contact_id", sig.ContactID,
			"source", sig.Source,
		)
		c.metrics.RecordLearnSignal("dropped")
		return false
	}
}

// Close stops accepting signals and waits until queued ones are written.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.bgWg.Wait()
}

func (c *Collector) run() {
	defer c.bgWg.Done()
	for sig := range c.queue {
		c.write(sig)
	}
}

func (c *Collector) write(sig Signal) {
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()

	// Every signal registers the contact; an empty name keeps the stored one.
	if c.refresher != nil {
		if err := c.refresher.RefreshContact(ctx, sig.ContactID, sig.DisplayName); err != nil {
			slog.Warn("learning: failed to refresh contact", "contact_id", sig.ContactID, "error", err)
		}
	}

	if sig.Record == nil || c.writer == nil {
		c.metrics.RecordLearnSignal("stored")
		return
	}

	record := *sig.Record
	if record.Timestamp.IsZero() {
		record.Timestamp = sig.Timestamp
	}
	if err := c.writer.RecordInteraction(ctx, sig.ContactID, record); err != nil {
		slog.Warn("learning: failed to record interaction",
			"contact_id", sig.ContactID,
			"source", sig.Source,
			"error", err,
		)
		c.metrics.RecordLearnSignal("failed")
		return
	}
	slog.Debug("learning: recorded interaction", "contact_id", sig.ContactID, "source", sig.Source)
	c.metrics.RecordLearnSignal("stored")
}

// Discard is an Emitter that accepts and forgets every signal.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(Signal) bool { return true }

var (
	_ Emitter = (*Collector)(nil)
	_ Emitter = Discard{}
)
