package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/contextsense/ai/call"
	"github.com/hrygo/contextsense/ai/engine"
	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/internal/profile"
	apiv1 "github.com/hrygo/contextsense/server/router/api/v1"
)

type testEnv struct {
	handler  http.Handler
	contacts *history.InMemoryStore
	exporter *metrics.PrometheusExporter
}

func newTestEnv(t *testing.T, withContacts bool) *testEnv {
	t.Helper()
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	eng, err := engine.New(engine.Config{}, engine.Deps{Metrics: exporter})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	contacts := history.NewInMemoryStore()
	resolver := relationship.NewResolver(contacts, relationship.NewClassifier(contacts, relationship.DefaultConfig()), 0, exporter)

	var store apiv1.ContactStore
	if withContacts {
		store = contacts
	}
	p := profile.Default()
	svc := apiv1.NewAPIV1Service(p, eng, resolver, store)
	s, err := NewServer(context.Background(), p, svc, exporter.Handler())
	require.NoError(t, err)
	return &testEnv{handler: s.Handler(), contacts: contacts, exporter: exporter}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_Healthz(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, engine.StrategyRule, body["strategy"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_RequestIDPassthrough(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
}

func TestServer_Process(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/v1/process", apiv1.ProcessRequest{
		Text:         "Hola, necesito ayuda urgente",
		SenderID:     "+34600000001",
		Relationship: &types.Relationship{Type: types.RelationshipFriend, Confidence: 0.8},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[apiv1.ProcessResponse](t, rec)
	assert.Equal(t, types.IntentRequest, out.Analysis.Intent)
	assert.Equal(t, 1.0, out.Analysis.Urgency)
	assert.NotEmpty(t, out.Response.Text)

	t.Run("invalid relationship", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/process", apiv1.ProcessRequest{
			Text:         "hola",
			Relationship: &types.Relationship{Type: "BOSS", Confidence: 0.5},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Messages(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("partner is answered", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/messages", apiv1.MessageRequest{
			Sender:       "+34600000001",
			Text:         "¿Dónde estás?",
			Relationship: &types.Relationship{Type: types.RelationshipPartner, Confidence: 0.9},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := decode[types.MessageDecision](t, rec)
		assert.True(t, out.ShouldRespond)
		assert.NotEmpty(t, out.Response)
	})

	t.Run("unknown sender resolved by directory", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/messages", apiv1.MessageRequest{
			Sender: "+34600000009",
			Text:   "Hola",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode[types.MessageDecision](t, rec)
		assert.False(t, out.ShouldRespond)
		assert.Empty(t, out.Response)
		assert.NotNil(t, out.SuggestedActions)
	})

	t.Run("sender required", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/messages", apiv1.MessageRequest{Text: "hola"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_CallLifecycle(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/v1/calls", apiv1.CallRequest{
		Caller:       types.CallerInfo{ID: "+34600000001", Name: "Ana"},
		Relationship: &types.Relationship{Type: types.RelationshipPartner, Confidence: 0.9},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decision := decode[types.CallDecision](t, rec)
	require.NotEmpty(t, decision.CallID)
	assert.Equal(t, types.ActionAnswerImmediately, decision.Action)

	path := "/api/v1/calls/" + decision.CallID
	snapshot := decode[call.Snapshot](t, env.do(t, http.MethodGet, path, nil))
	assert.Equal(t, call.StateAnswerImmediately, snapshot.State)

	rec = env.do(t, http.MethodPost, path+"/answer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snapshot = decode[call.Snapshot](t, rec)
	assert.Equal(t, call.StateActive, snapshot.State)
	assert.Len(t, snapshot.Transcript, 1)

	rec = env.do(t, http.MethodPost, path+"/answer", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	ended := decode[apiv1.EndCallResponse](t, env.do(t, http.MethodPost, path+"/end", nil))
	assert.True(t, ended.Ended)
	ended = decode[apiv1.EndCallResponse](t, env.do(t, http.MethodPost, path+"/end", nil))
	assert.False(t, ended.Ended)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, path+"/answer", nil).Code)
}

func TestServer_DeclinedCallIsNotKept(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/v1/calls", apiv1.CallRequest{
		Caller: types.CallerInfo{ID: "12345"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decision := decode[types.CallDecision](t, rec)
	assert.True(t, decision.LikelySpam)
	assert.Equal(t, types.ActionDeclinePolitely, decision.Action)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/calls/"+decision.CallID, nil).Code)
}

func TestServer_Contacts(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, false)
		assert.Equal(t, http.StatusNotImplemented, env.do(t, http.MethodGet, "/api/v1/contacts/ana", nil).Code)
	})

	env := newTestEnv(t, true)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/contacts/ana", nil).Code)

	name, group := "Mamá", relationship.GroupFamily
	rec := env.do(t, http.MethodPut, "/api/v1/contacts/ana", history.ContactUpdate{DisplayName: &name, Group: &group})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	contact := decode[apiv1.Contact](t, rec)
	assert.Equal(t, "Mamá", contact.Entry.DisplayName)
	assert.Equal(t, types.RelationshipUnknown, contact.Relationship.Type)

	// The directory now classifies the contact for requests without a relationship.
	rec = env.do(t, http.MethodPost, "/api/v1/messages", apiv1.MessageRequest{Sender: "ana", Text: "Ven a comer"})
	require.Equal(t, http.StatusOK, rec.Code)

	bad := "coworkers"
	rec = env.do(t, http.MethodPut, "/api/v1/contacts/ana", history.ContactUpdate{Group: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(t, http.MethodPost, "/api/v1/process", apiv1.ProcessRequest{Text: "hola"})

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contextsense_engine_decisions_total")
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(context.Background(), profile.Default(), &apiv1.APIV1Service{}, nil)
	assert.Error(t, err)
}
