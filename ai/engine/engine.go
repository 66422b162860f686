// Package engine is the facade that turns stimuli into decisions. Two
// interchangeable strategies honour the same contract: the deterministic rule
// pipeline and a remote-model strategy that only differs in how reply text is
// produced.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/contextsense/ai/analyzer"
	"github.com/hrygo/contextsense/ai/call"
	"github.com/hrygo/contextsense/ai/core/llm"
	"github.com/hrygo/contextsense/ai/learning"
	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
)

// Strategy names.
const (
	StrategyRule   = "rule"
	StrategyRemote = "remote"
)

// ErrUnknownStrategy is returned by New for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown decision strategy")

// DecisionEngine is the capability interface of the engine. Operations never
// fail and never panic: degraded collaborators yield conservative defaults.
type DecisionEngine interface {
	// Process analyses text and renders a reply.
	Process(ctx context.Context, text string, cc types.ConversationContext) (types.Response, types.InputAnalysis)

	// HandleIncomingCall routes a call and opens its session.
	HandleIncomingCall(ctx context.Context, caller types.CallerInfo, rel types.Relationship) types.CallDecision

	// HandleMessage decides whether and how to answer a message.
	HandleMessage(ctx context.Context, sender, text string, rel types.Relationship) types.MessageDecision
}

// Analyzer produces analyses together with the lexical result.
type Analyzer interface {
	AnalyzeDetailed(ctx context.Context, text string, cc types.ConversationContext) (types.InputAnalysis, lexical.Result)
}

// Responder renders replies and call lines.
type Responder interface {
	Respond(text string, a types.InputAnalysis, cc types.ConversationContext) types.Response
	Fallback() types.Response
	CallLine(req response.CallLineRequest) types.Response
}

// CallConfig configures call handling.
type CallConfig struct {
	// ConversationMode emits follow-up lines while a call is ACTIVE.
	ConversationMode bool
	// FollowUpInterval between follow-up lines (default: 8s).
	FollowUpInterval time.Duration
	// MaxFollowUps caps follow-up lines per call; zero means no cap.
	MaxFollowUps int
	// DoNotDisturb sends every non-partner call to voicemail.
	DoNotDisturb bool
	// AutoAnswer starts answered calls immediately instead of waiting for AnswerCall.
	AutoAnswer bool
	// RingTimeout ends answered calls still waiting for AnswerCall
	// (default: DefaultRingTimeout; negative disables).
	RingTimeout time.Duration
}

// DefaultRingTimeout is how long an answered call waits to be picked up.
const DefaultRingTimeout = 45 * time.Second

// RemoteConfig configures the remote-model strategy.
type RemoteConfig struct {
	// MaxConcurrent bounds in-flight model calls (default: 4).
	MaxConcurrent int64
	// RatePerSecond throttles model calls (default: 5).
	RatePerSecond float64
	// Burst is the limiter burst (default: MaxConcurrent).
	Burst int
	// Timeout bounds one reply including queueing (default: 5s).
	Timeout time.Duration
}

// Config configures an engine.
type Config struct {
	Strategy  string
	Call      CallConfig
	Remote    RemoteConfig
	GateRules []string
}

// Deps are the collaborators of an engine. Nil entries fall back to defaults.
type Deps struct {
	Analyzer  Analyzer
	Responder Responder
	Learn     learning.Emitter
	// LLM is required by the remote strategy.
	LLM       llm.Service
	Metrics   metrics.Recorder
	LineSink  call.LineSink
	SpamRules *relationship.SpamRules
	Clock     func() time.Time
}

// Engine is a DecisionEngine that also manages live call sessions.
type Engine interface {
	DecisionEngine

	// Strategy returns the strategy chosen at construction.
	Strategy() string
	// AnswerCall starts a pending answered call.
	AnswerCall(callID string) error
	// EndCall hangs up a live call. It reports false for unknown IDs.
	EndCall(callID string) bool
	// Call returns a snapshot of a live call.
	Call(callID string) (call.Snapshot, bool)
	// Close ends every live call.
	Close()
}

// New builds the engine for cfg.Strategy. The strategy is fixed for the
// lifetime of the engine.
func New(cfg Config, deps Deps) (Engine, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = StrategyRule
	}

	switch strategy {
	case StrategyRule:
		p, err := newPipeline(strategy, cfg, deps)
		if err != nil {
			return nil, err
		}
		return &RuleEngine{pipeline: p}, nil
	case StrategyRemote:
		if deps.LLM == nil {
			return nil, errors.New("remote strategy requires an LLM service")
		}
		p, err := newPipeline(strategy, cfg, deps)
		if err != nil {
			return nil, err
		}
		return newRemoteEngine(p, deps.LLM, cfg.Remote), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}

// NewRuleEngine builds the deterministic engine.
func NewRuleEngine(cfg Config, deps Deps) (*RuleEngine, error) {
	p, err := newPipeline(StrategyRule, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &RuleEngine{pipeline: p}, nil
}

func defaultAnalyzer(m metrics.Recorder) Analyzer {
	return analyzer.New(nil, nil, nil, analyzer.Config{Metrics: m})
}
