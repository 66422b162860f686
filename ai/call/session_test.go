package call

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hrygo/contextsense/ai/learning"
	"github.com/hrygo/contextsense/ai/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu    sync.Mutex
	lines []types.Response
	ended bool
	late  int // lines received after the call ended
}

func (r *recordingSink) Line(_ string, _ int, line types.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		r.late++
	}
	r.lines = append(r.lines, line)
}

func (r *recordingSink) markEnded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

type countingEmitter struct {
	mu      sync.Mutex
	signals []learning.Signal
}

func (c *countingEmitter) Emit(sig learning.Signal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, sig)
	return true
}

func evaluated(t *testing.T, rel types.RelationshipType, spam bool) (*Machine, types.CallDecision) {
	t.Helper()
	m := NewMachine()
	action, tone, err := m.Evaluate(rel, spam, DecideOptions{})
	require.NoError(t, err)
	return m, types.CallDecision{Action: action, Tone: tone, Relationship: types.Relationship{Type: rel}}
}

func TestSession_ConversationMode(t *testing.T) {
	sink := &recordingSink{}
	learn := &countingEmitter{}
	m, decision := evaluated(t, types.RelationshipPartner, false)
	caller := types.CallerInfo{ID: "+34600000000", Name: "Mi amor ❤️"}

	s := NewSession(caller, decision, m, SessionDeps{Sink: sink, Learn: learn},
		SessionConfig{ConversationMode: true, Interval: 5 * time.Millisecond})
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateActive, s.State())

	require.Eventually(t, func() bool { return sink.count() >= 3 }, time.Second, time.Millisecond)

	s.End()
	sink.markEnded()
	assert.Equal(t, StateEnded, s.State())

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, sink.late, "no line after END")

	s.End()
	learn.mu.Lock()
	defer learn.mu.Unlock()
	require.Len(t, learn.signals, 1, "exactly one learn signal")
	assert.Equal(t, learning.SourceCall, learn.signals[0].Source)
	assert.Equal(t, caller.ID, learn.signals[0].ContactID)
	assert.Equal(t, caller.Name, learn.signals[0].DisplayName)

	transcript := s.Transcript()
	assert.Equal(t, "¡Hola mi amor! Qué bien que me llames", transcript[0].Text)
	assert.NotEmpty(t, s.ID())
}

func TestSession_MaxFollowUps(t *testing.T) {
	sink := &recordingSink{}
	m, decision := evaluated(t, types.RelationshipFriend, false)

	s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{Sink: sink},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond, MaxFollowUps: 2})
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, sink.count(), "opening plus two follow-ups")
	s.End()
}

func TestSession_WithoutConversationMode(t *testing.T) {
	sink := &recordingSink{}
	m, decision := evaluated(t, types.RelationshipWork, false)

	s := NewSession(types.CallerInfo{ID: "1", Name: "Jefe"}, decision, m, SessionDeps{Sink: sink}, SessionConfig{})
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, "Buenos días Jefe, dígame", s.Transcript()[0].Text)
	s.End()
}

func TestSession_DeclinedCall(t *testing.T) {
	sink := &recordingSink{}
	learn := &countingEmitter{}
	m, decision := evaluated(t, types.RelationshipUnknown, true)

	s := NewSession(types.CallerInfo{ID: "12345"}, decision, m, SessionDeps{Sink: sink, Learn: learn},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond})
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, StateEnded, s.State())
	assert.Equal(t, 1, sink.count())
	assert.Len(t, learn.signals, 1)
	for _, tr := range s.Snapshot().History {
		assert.NotEqual(t, StateActive, tr.To)
	}
}

func TestSession_StartAfterEnd(t *testing.T) {
	m, decision := evaluated(t, types.RelationshipFamily, false)
	s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{}, SessionConfig{ConversationMode: true})
	s.End()
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition)
}

func TestSession_ContextCancelStopsFollowUps(t *testing.T) {
	sink := &recordingSink{}
	m, decision := evaluated(t, types.RelationshipFriend, false)
	ctx, cancel := context.WithCancel(context.Background())

	s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{Sink: sink},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond})
	require.NoError(t, s.Start(ctx))
	cancel()
	s.End()
	assert.Equal(t, StateEnded, s.State())
}

func TestSession_ConcurrentEnd(t *testing.T) {
	learn := &countingEmitter{}
	m, decision := evaluated(t, types.RelationshipPartner, false)
	s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{Learn: learn},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond})
	require.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.End()
		}()
	}
	wg.Wait()
	assert.Len(t, learn.signals, 1)
}

func TestSession_ExpireAfter(t *testing.T) {
	t.Run("unanswered call ends", func(t *testing.T) {
		learn := &countingEmitter{}
		m, decision := evaluated(t, types.RelationshipWork, false)
		s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{Learn: learn}, SessionConfig{})

		expired := make(chan struct{})
		s.ExpireAfter(10*time.Millisecond, func() { close(expired) })

		select {
		case <-expired:
		case <-time.After(time.Second):
			t.Fatal("call did not expire")
		}
		assert.Equal(t, StateEnded, s.State())
		assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition)
		learn.mu.Lock()
		assert.Len(t, learn.signals, 1)
		learn.mu.Unlock()

		history := m.History()
		assert.Equal(t, StateAnswerWithGreeting, history[len(history)-1].From)
	})

	t.Run("answering disarms the timer", func(t *testing.T) {
		m, decision := evaluated(t, types.RelationshipFriend, false)
		s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{}, SessionConfig{})

		var mu sync.Mutex
		fired := false
		s.ExpireAfter(20*time.Millisecond, func() {
			mu.Lock()
			fired = true
			mu.Unlock()
		})
		require.NoError(t, s.Start(context.Background()))

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, StateActive, s.State())
		mu.Lock()
		assert.False(t, fired)
		mu.Unlock()
		s.End()
	})

	t.Run("declined call is not armed", func(t *testing.T) {
		m, decision := evaluated(t, types.RelationshipUnknown, true)
		s := NewSession(types.CallerInfo{ID: "12345"}, decision, m, SessionDeps{}, SessionConfig{})
		s.ExpireAfter(time.Millisecond, func() { t.Error("declined calls never expire") })
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, StateDeclinePolitely, s.State())
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m, decision := evaluated(t, types.RelationshipFriend, false)
	s := NewSession(types.CallerInfo{ID: "1"}, decision, m, SessionDeps{},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond})
	require.NoError(t, s.Start(context.Background()))

	r.Add(s)
	got, ok := r.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.End(s.ID()))
	assert.False(t, r.End(s.ID()))
	assert.Equal(t, StateEnded, s.State())

	m2, decision2 := evaluated(t, types.RelationshipWork, false)
	s2 := NewSession(types.CallerInfo{ID: "2"}, decision2, m2, SessionDeps{},
		SessionConfig{ConversationMode: true, Interval: time.Millisecond})
	require.NoError(t, s2.Start(context.Background()))
	r.Add(s2)
	r.EndAll()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, StateEnded, s2.State())

	m3, decision3 := evaluated(t, types.RelationshipWork, false)
	s3 := NewSession(types.CallerInfo{ID: "3"}, decision3, m3, SessionDeps{}, SessionConfig{})
	r.Add(s3)
	r.Remove(s3.ID())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, StateAnswerWithGreeting, s3.State(), "remove does not end the call")
}
