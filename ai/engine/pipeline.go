package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hrygo/contextsense/ai/call"
	"github.com/hrygo/contextsense/ai/gate"
	"github.com/hrygo/contextsense/ai/learning"
	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
)

// ErrCallNotFound is returned for call IDs without a live session.
var ErrCallNotFound = errors.New("call not found")

// PlatformMessage is the platform recorded for HandleMessage stimuli.
const PlatformMessage = "message"

// Operation and outcome labels for decision metrics.
const (
	opProcess  = "process"
	opCall     = "call"
	opMessage  = "message"
	outcomeOK  = "ok"
	outcomeErr = "panic"
)

type replyFunc func(ctx context.Context, text string, a types.InputAnalysis, cc types.ConversationContext) types.Response

// pipeline is the analysis, gating and call routing shared by every strategy.
// Strategies differ only in reply.
type pipeline struct {
	strategy  string
	analyzer  Analyzer
	responder Responder
	gate      *gate.Gate
	learn     learning.Emitter
	metrics   metrics.Recorder
	spam      relationship.SpamRules
	callCfg   CallConfig
	lineSink  call.LineSink
	calls     *call.Registry
	now       func() time.Time
	reply     replyFunc

	// baseCtx outlives requests; follow-up tasks of live calls run under it.
	baseCtx context.Context
	cancel  context.CancelFunc
}

func newPipeline(strategy string, cfg Config, deps Deps) (*pipeline, error) {
	g, err := gate.New(cfg.GateRules...)
	if err != nil {
		return nil, err
	}

	m := metrics.OrNop(deps.Metrics)
	if deps.Analyzer == nil {
		deps.Analyzer = defaultAnalyzer(m)
	}
	if deps.Responder == nil {
		deps.Responder = response.NewDefaultEngine()
	}
	if deps.Learn == nil {
		deps.Learn = learning.Discard{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if cfg.Call.RingTimeout == 0 {
		cfg.Call.RingTimeout = DefaultRingTimeout
	}
	spam := relationship.DefaultSpamRules()
	if deps.SpamRules != nil {
		spam = *deps.SpamRules
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &pipeline{
		strategy:  strategy,
		analyzer:  deps.Analyzer,
		responder: deps.Responder,
		gate:      g,
		learn:     deps.Learn,
		metrics:   m,
		spam:      spam,
		callCfg:   cfg.Call,
		lineSink:  deps.LineSink,
		calls:     call.NewRegistry(),
		now:       deps.Clock,
		baseCtx:   ctx,
		cancel:    cancel,
	}
	p.reply = func(_ context.Context, text string, a types.InputAnalysis, cc types.ConversationContext) types.Response {
		return p.responder.Respond(text, a, cc)
	}
	return p, nil
}

// Strategy returns the strategy chosen at construction.
func (p *pipeline) Strategy() string { return p.strategy }

// Process analyses text and renders a reply.
func (p *pipeline) Process(ctx context.Context, text string, cc types.ConversationContext) (resp types.Response, analysis types.InputAnalysis) {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: panic in process",
				"strategy", p.strategy,
				"sender_id", cc.SenderID,
				"panic", r,
			)
			resp, analysis = p.fallback(), p.neutralAnalysis(text)
			outcome = outcomeErr
		}
		p.metrics.RecordDecision(opProcess, p.strategy, outcome, time.Since(start))
	}()

	cc.Relationship = cc.Relationship.Normalize()
	analysis, lex := p.analyzer.AnalyzeDetailed(ctx, text, cc)
	resp = p.reply(ctx, text, analysis, cc)
	p.emitLearn(learning.SourceProcess, cc.SenderID, cc.SenderName, lex, analysis.Timestamp())
	return resp, analysis
}

// HandleIncomingCall routes a call. Declined and voicemail calls speak their
// line and end at once; answered calls stay registered until they end or
// their ring timeout passes unanswered.
func (p *pipeline) HandleIncomingCall(_ context.Context, caller types.CallerInfo, rel types.Relationship) (decision types.CallDecision) {
	start := time.Now()
	outcome := outcomeOK
	rel = rel.Normalize()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: panic in call handling",
				"strategy", p.strategy,
				"caller_id", caller.ID,
				"panic", r,
			)
			decision = types.CallDecision{
				CallID:       call.NewCallID(),
				Action:       types.ActionSendToVoicemail,
				Tone:         types.CallTonePolite,
				Relationship: rel,
				Greeting:     p.fallback(),
			}
			outcome = outcomeErr
		}
		p.metrics.RecordDecision(opCall, p.strategy, outcome, time.Since(start))
	}()

	spam := rel.Type == types.RelationshipUnknown && p.spam.IsLikelySpam(caller.ID, caller.Name)

	m := call.NewMachine(
		call.WithClock(p.now),
		call.WithTransitionHook(func(from, to call.State) {
			p.metrics.RecordCallTransition(string(from), string(to))
		}),
	)
	action, tone, err := m.Evaluate(rel.Type, spam, call.DecideOptions{DoNotDisturb: p.callCfg.DoNotDisturb})
	if err != nil {
		panic(err) // a fresh machine always evaluates
	}

	decision = types.CallDecision{
		CallID:       call.NewCallID(),
		Action:       action,
		Tone:         tone,
		Relationship: rel,
		LikelySpam:   spam,
	}
	decision.Greeting = p.responder.CallLine(response.CallLineRequest{
		Action:     action,
		Tone:       tone,
		CallerName: caller.Name,
	})

	session := call.NewSession(caller, decision, m,
		call.SessionDeps{Lines: p.responder, Sink: p.lineSink, Learn: p.learn},
		call.SessionConfig{
			ConversationMode: p.callCfg.ConversationMode,
			Interval:         p.callCfg.FollowUpInterval,
			MaxFollowUps:     p.callCfg.MaxFollowUps,
		},
	)

	slog.Debug("engine: call routed",
		"call_id", decision.CallID,
		"caller_id", caller.ID,
		"relationship", rel.Type,
		"action", action,
		"tone", tone,
		"likely_spam", spam,
	)

	if !action.Answers() {
		if err := session.Start(p.baseCtx); err != nil {
			slog.Warn("engine: failed to close unanswered call", "call_id", decision.CallID, "error", err)
		}
		return decision
	}

	p.calls.Add(session)
	if p.callCfg.AutoAnswer {
		if err := session.Start(p.baseCtx); err != nil {
			slog.Warn("engine: failed to answer call", "call_id", decision.CallID, "error", err)
		}
		return decision
	}
	session.ExpireAfter(p.callCfg.RingTimeout, func() { p.calls.Remove(session.ID()) })
	return decision
}

// HandleMessage decides whether and how to answer a message.
func (p *pipeline) HandleMessage(ctx context.Context, sender, text string, rel types.Relationship) (decision types.MessageDecision) {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: panic in message handling",
				"strategy", p.strategy,
				"sender_id", sender,
				"panic", r,
			)
			decision = types.MessageDecision{SuggestedActions: []string{}}
			outcome = outcomeErr
		}
		p.metrics.RecordDecision(opMessage, p.strategy, outcome, time.Since(start))
	}()

	cc := types.ConversationContext{
		Platform:     PlatformMessage,
		SenderID:     sender,
		Relationship: rel.Normalize(),
		Timestamp:    p.now(),
	}
	analysis, lex := p.analyzer.AnalyzeDetailed(ctx, text, cc)
	verdict := p.gate.Evaluate(cc.Relationship.Type, analysis)

	decision = types.MessageDecision{
		ShouldRespond:    verdict.Respond,
		Urgency:          analysis.Urgency(),
		SuggestedActions: response.SuggestedActions(analysis, cc),
	}
	if verdict.Respond {
		decision.Response = p.reply(ctx, text, analysis, cc).Text
	}

	slog.Debug("engine: message gated",
		"sender_id", sender,
		"respond", verdict.Respond,
		"reason", verdict.Reason,
		"urgency", decision.Urgency,
	)
	p.emitLearn(learning.SourceMessage, sender, "", lex, analysis.Timestamp())
	return decision
}

// AnswerCall starts a pending answered call.
func (p *pipeline) AnswerCall(callID string) error {
	s, ok := p.calls.Get(callID)
	if !ok {
		return ErrCallNotFound
	}
	return s.Start(p.baseCtx)
}

// EndCall hangs up a live call.
func (p *pipeline) EndCall(callID string) bool {
	return p.calls.End(callID)
}

// Call returns a snapshot of a live call.
func (p *pipeline) Call(callID string) (call.Snapshot, bool) {
	s, ok := p.calls.Get(callID)
	if !ok {
		return call.Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Close ends every live call.
func (p *pipeline) Close() {
	p.calls.EndAll()
	p.cancel()
}

func (p *pipeline) emitLearn(source learning.Source, contactID, displayName string, lex lexical.Result, at time.Time) {
	if contactID == "" {
		return
	}
	p.learn.Emit(learning.Signal{
		Source:      source,
		ContactID:   contactID,
		DisplayName: displayName,
		Record:      learning.RecordFrom(lex, at),
		Timestamp:   at,
	})
}

// fallback is the responder's neutral reply, or the built-in one when the
// responder itself fails.
func (p *pipeline) fallback() (resp types.Response) {
	defer func() {
		if recover() != nil {
			resp = response.NewDefaultEngine().Fallback()
		}
	}()
	return p.responder.Fallback()
}

func (p *pipeline) neutralAnalysis(text string) types.InputAnalysis {
	return types.NewInputAnalysis(types.AnalysisFields{
		OriginalInput: text,
		Timestamp:     p.now().UTC(),
	})
}
