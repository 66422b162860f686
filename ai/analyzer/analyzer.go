// Package analyzer turns one stimulus into an immutable InputAnalysis.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/contextsense/ai/cache"
	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/personality"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/ai/urgency"
)

const cacheType = "lexical"

// Config configures an Analyzer.
type Config struct {
	// CacheSize is the number of lexical results kept (default: 1024).
	CacheSize int
	// CacheTTL bounds how long a lexical result is reused (default: 10min).
	CacheTTL time.Duration
	// Clock stamps analyses (default: time.Now).
	Clock   func() time.Time
	Metrics metrics.Recorder
}

// Analyzer orchestrates lexical classification, personality profiling and
// urgency scoring.
type Analyzer struct {
	lexical  *lexical.Classifier
	profiler *personality.Profiler
	scorer   *urgency.Scorer
	cache    *cache.LRUCache[string, lexical.Result]
	now      func() time.Time
	metrics  metrics.Recorder
}

// New creates an Analyzer. Nil stages fall back to their defaults; a nil
// profiler profiles every contact as BALANCED.
func New(lex *lexical.Classifier, profiler *personality.Profiler, scorer *urgency.Scorer, cfg Config) *Analyzer {
	if lex == nil {
		lex = lexical.NewDefaultClassifier()
	}
	if profiler == nil {
		profiler = personality.NewProfiler(nil, personality.Config{})
	}
	if scorer == nil {
		scorer = urgency.NewDefaultScorer()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Analyzer{
		lexical:  lex,
		profiler: profiler,
		scorer:   scorer,
		cache:    cache.NewLRUCache[string, lexical.Result](cfg.CacheSize, cfg.CacheTTL),
		now:      cfg.Clock,
		metrics:  metrics.OrNop(cfg.Metrics),
	}
}

// Analyze analyses text received in cc. It never fails: unavailable
// collaborators resolve to conservative defaults.
func (a *Analyzer) Analyze(ctx context.Context, text string, cc types.ConversationContext) types.InputAnalysis {
	analysis, _ := a.AnalyzeDetailed(ctx, text, cc)
	return analysis
}

// AnalyzeDetailed is Analyze that also returns the lexical result, whose
// stylistic markers feed the learn signal.
func (a *Analyzer) AnalyzeDetailed(ctx context.Context, text string, cc types.ConversationContext) (types.InputAnalysis, lexical.Result) {
	var (
		res         lexical.Result
		personaType = types.PersonalityBalanced
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = a.classify(text)
		return nil
	})
	g.Go(func() error {
		personaType = a.profiler.ProfileContact(gctx, cc.SenderID)
		return nil
	})
	_ = g.Wait() // stages never fail

	score := a.scorer.Score(urgency.Input{
		Relationship:      cc.Relationship.Type,
		Intent:            res.Intent,
		Sentiment:         res.Sentiment,
		HasUrgencyKeyword: res.Markers.Urgent,
	})
	a.metrics.ObserveUrgency(score)

	analysis := types.NewInputAnalysis(types.AnalysisFields{
		OriginalInput:   text,
		Sentiment:       res.Sentiment,
		Intent:          res.Intent,
		Entities:        res.Entities,
		EmotionalTone:   res.Tone,
		PersonalityType: personaType,
		Urgency:         score,
		Timestamp:       a.now().UTC(),
	})

	slog.Debug("analyzer: analysed stimulus",
		"sender_id", cc.SenderID,
		"intent", res.Intent,
		"sentiment", res.Sentiment,
		"tone", res.Tone,
		"personality", personaType,
		"urgency", score,
	)
	return analysis, res
}

// classify runs the lexical stage through the cache. The stage is pure, so a
// cached result is indistinguishable from a fresh one.
func (a *Analyzer) classify(text string) lexical.Result {
	res, hit := a.cache.GetOrLoad(hashKey(text), func() lexical.Result {
		return a.lexical.Classify(text)
	})
	if hit {
		a.metrics.RecordCacheHit(cacheType)
	} else {
		a.metrics.RecordCacheMiss(cacheType)
	}
	res.Entities = slices.Clone(res.Entities)
	return res
}

// hashKey generates a cache key from raw text.
func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
