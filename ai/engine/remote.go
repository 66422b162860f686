package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hrygo/contextsense/ai/core/llm"
	"github.com/hrygo/contextsense/ai/internal/strutil"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
)

// remoteConfidenceDefault is used when the model omits a confidence.
const remoteConfidenceDefault = 0.5

const replySystemPrompt = `You are the voice of a personal assistant answering messages on behalf of its owner.
You receive a JSON document describing the incoming message, its analysis and the sender's relationship to the owner.
Reply in the language of the message, briefly and in a tone suited to the relationship.
Answer with a JSON object: {"text": reply, "expression": one of love|wink|concerned|excited|thinking|neutral, "confidence": number between 0 and 1}.`

// replySchema is the structured output requested from the model.
var replySchema = llm.Object(map[string]*llm.JSONSchema{
	"text":       {Type: "string", Description: "Reply text"},
	"expression": {Type: "string", Enum: expressions},
	"confidence": {Type: "number", Description: "Confidence between 0 and 1"},
})

var expressions = []string{
	response.ExpressionLove,
	response.ExpressionWink,
	response.ExpressionConcerned,
	response.ExpressionExcited,
	response.ExpressionThinking,
	response.ExpressionNeutral,
}

// RemoteEngine asks a remote model for reply text. Analysis, gating and call
// routing are the rule pipeline's. Every model failure degrades to the
// neutral fallback.
type RemoteEngine struct {
	*pipeline
	llm     llm.Service
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Engine = (*RemoteEngine)(nil)

func newRemoteEngine(p *pipeline, svc llm.Service, cfg RemoteConfig) *RemoteEngine {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.MaxConcurrent)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	r := &RemoteEngine{
		pipeline: p,
		llm:      svc,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		timeout:  cfg.Timeout,
	}
	p.reply = r.reply
	return r
}

type modelReply struct {
	Text       string   `json:"text"`
	Expression string   `json:"expression"`
	Confidence *float64 `json:"confidence"`
}

type promptDocument struct {
	Message      string               `json:"message"`
	Sender       string               `json:"sender,omitempty"`
	Relationship types.Relationship   `json:"relationship"`
	Analysis     types.AnalysisFields `json:"analysis"`
}

func (r *RemoteEngine) reply(ctx context.Context, text string, a types.InputAnalysis, cc types.ConversationContext) types.Response {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return r.degrade(ctx, "rate_limited", err)
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return r.degrade(ctx, "busy", err)
	}
	defer r.sem.Release(1)

	messages, err := buildPrompt(text, a, cc)
	if err != nil {
		return r.degrade(ctx, "error", err)
	}

	start := time.Now()
	content, _, err := r.llm.ChatJSON(ctx, messages, "reply", replySchema)
	r.metrics.RecordRemoteCall(r.llm.Model(), time.Since(start), err == nil)
	if err != nil {
		return r.degrade(ctx, "error", err)
	}

	out, err := parseReply(content)
	if err != nil {
		return r.degrade(ctx, "parse", err)
	}

	confidence := remoteConfidenceDefault
	if out.Confidence != nil {
		confidence = types.Clamp01(*out.Confidence)
	}
	expression := out.Expression
	if !validExpression(expression) {
		expression = response.Expression(a.EmotionalTone(), a.Sentiment())
	}
	return types.Response{
		Text:             strings.TrimSpace(out.Text),
		ExpressionTag:    expression,
		Tone:             response.Tone(cc.Relationship.Type, a.PersonalityType()),
		SuggestedActions: response.SuggestedActions(a, cc),
		Confidence:       confidence,
	}
}

func (r *RemoteEngine) degrade(ctx context.Context, reason string, err error) types.Response {
	if ctx.Err() != nil {
		reason = "timeout"
	}
	slog.Warn("engine: remote reply unavailable, using fallback",
		"model", r.llm.Model(),
		"reason", reason,
		"error", err,
	)
	r.metrics.RecordFallback("llm", reason)
	return r.fallback()
}

// maxPromptMessageRunes caps the message forwarded to the model.
const maxPromptMessageRunes = 2000

func buildPrompt(text string, a types.InputAnalysis, cc types.ConversationContext) ([]llm.Message, error) {
	doc := promptDocument{
		Message:      strutil.Truncate(text, maxPromptMessageRunes),
		Sender:       cc.SenderName,
		Relationship: cc.Relationship,
		Analysis:     a.Fields(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}
	return []llm.Message{
		llm.SystemPrompt(replySystemPrompt),
		llm.UserMessage(string(body)),
	}, nil
}

// parseReply decodes the model's JSON object, tolerating surrounding prose or
// code fences.
func parseReply(content string) (modelReply, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return modelReply{}, errors.New("no JSON object in model reply")
	}
	var out modelReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return modelReply{}, fmt.Errorf("decode model reply: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return modelReply{}, errors.New("model reply has no text")
	}
	return out, nil
}

func validExpression(tag string) bool {
	return slices.Contains(expressions, tag)
}
