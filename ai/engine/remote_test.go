package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/contextsense/ai/core/llm"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
)

type fakeLLM struct {
	content string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	last    []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	return f.ChatJSON(ctx, messages, "", nil)
}

func (f *fakeLLM) ChatJSON(ctx context.Context, messages []llm.Message, _ string, _ *llm.JSONSchema) (string, *llm.CallStats, error) {
	f.calls.Add(1)
	f.last = messages
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	if f.err != nil {
		return "", nil, f.err
	}
	return f.content, &llm.CallStats{}, nil
}

func (f *fakeLLM) Warmup(context.Context) {}

func (f *fakeLLM) Model() string { return "fake-model" }

func newRemote(t *testing.T, svc llm.Service, cfg RemoteConfig) Engine {
	t.Helper()
	eng, err := New(Config{Strategy: StrategyRemote, Remote: cfg}, Deps{LLM: svc})
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func TestRemoteEngine_Reply(t *testing.T) {
	svc := &fakeLLM{content: "```json\n{\"text\":\"¡Claro! Voy ahora mismo\",\"expression\":\"excited\",\"confidence\":0.72}\n```"}
	eng := newRemote(t, svc, RemoteConfig{})
	assert.Equal(t, StrategyRemote, eng.Strategy())

	cc := types.ConversationContext{SenderID: "ana", SenderName: "Ana", Relationship: friend()}
	resp, analysis := eng.Process(context.Background(), "Hola, necesito ayuda urgente", cc)

	assert.Equal(t, "¡Claro! Voy ahora mismo", resp.Text)
	assert.Equal(t, response.ExpressionExcited, resp.ExpressionTag)
	assert.InDelta(t, 0.72, resp.Confidence, 1e-9)
	assert.Equal(t, "friendly", resp.Tone)
	assert.Contains(t, resp.SuggestedActions, "notify_owner")
	assert.Equal(t, types.IntentRequest, analysis.Intent())

	require.Len(t, svc.last, 2)
	assert.Contains(t, svc.last[1].Content, `"message":"Hola, necesito ayuda urgente"`)
	assert.Contains(t, svc.last[1].Content, `"intent":"REQUEST"`)
}

func TestRemoteEngine_DegradesToFallback(t *testing.T) {
	fallback := response.NewDefaultEngine().Fallback()

	tests := []struct {
		name string
		svc  *fakeLLM
	}{
		{"model error", &fakeLLM{err: errors.New("503")}},
		{"not json", &fakeLLM{content: "lo siento, no puedo"}},
		{"empty text", &fakeLLM{content: `{"text":"  ","expression":"love","confidence":1}`}},
		{"timeout", &fakeLLM{content: `{"text":"tarde"}`, delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newRemote(t, tt.svc, RemoteConfig{Timeout: 20 * time.Millisecond})
			resp, _ := eng.Process(context.Background(), "Hola", types.ConversationContext{SenderID: "x"})
			assert.Equal(t, fallback, resp)
		})
	}
}

func TestRemoteEngine_Defaults(t *testing.T) {
	svc := &fakeLLM{content: `{"text":"Vale","expression":"smirk"}`}
	eng := newRemote(t, svc, RemoteConfig{})

	resp, _ := eng.Process(context.Background(), "Hola", types.ConversationContext{SenderID: "x"})
	assert.Equal(t, "Vale", resp.Text)
	assert.InDelta(t, remoteConfidenceDefault, resp.Confidence, 1e-9)
	assert.Equal(t, response.ExpressionNeutral, resp.ExpressionTag, "unknown expressions are replaced")
}

func TestRemoteEngine_SharesGateAndCalls(t *testing.T) {
	svc := &fakeLLM{content: `{"text":"Ahora te ayudo","expression":"neutral","confidence":0.6}`}
	eng := newRemote(t, svc, RemoteConfig{})
	ctx := context.Background()

	d := eng.HandleMessage(ctx, "luis", "El partido estuvo bien", friend())
	assert.False(t, d.ShouldRespond)
	assert.Empty(t, d.Response)
	assert.Zero(t, svc.calls.Load(), "the model is not asked when the gate says no")

	d = eng.HandleMessage(ctx, "mama", "¿Puedes ayudarme?", types.Relationship{Type: types.RelationshipFamily, Confidence: 0.9})
	assert.True(t, d.ShouldRespond)
	assert.Equal(t, "Ahora te ayudo", d.Response)

	call := eng.HandleIncomingCall(ctx, types.CallerInfo{ID: "12345"}, types.UnknownRelationship())
	assert.Equal(t, types.ActionDeclinePolitely, call.Action)
}

func TestRemoteEngine_RateLimited(t *testing.T) {
	svc := &fakeLLM{content: `{"text":"ok","expression":"neutral","confidence":0.9}`}
	eng := newRemote(t, svc, RemoteConfig{RatePerSecond: 0.001, Burst: 1, Timeout: 20 * time.Millisecond})
	ctx := context.Background()

	first, _ := eng.Process(ctx, "Hola", types.ConversationContext{SenderID: "x"})
	assert.Equal(t, "ok", first.Text)

	second, _ := eng.Process(ctx, "Hola", types.ConversationContext{SenderID: "x"})
	assert.Equal(t, response.NewDefaultEngine().Fallback(), second)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestParseReply(t *testing.T) {
	out, err := parseReply(`Aquí va: {"text":"hola","confidence":0.4}`)
	require.NoError(t, err)
	assert.Equal(t, "hola", out.Text)
	require.NotNil(t, out.Confidence)
	assert.InDelta(t, 0.4, *out.Confidence, 1e-9)

	_, err = parseReply("}{")
	assert.Error(t, err)
	_, err = parseReply(`{"text": 3}`)
	assert.Error(t, err)
}
