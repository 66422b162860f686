package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/contextsense/ai/learning"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
)

// NewCallID returns a fresh call identifier.
func NewCallID() string {
	return shortuuid.New()
}

// LineSource renders the line spoken at a call turn.
type LineSource interface {
	CallLine(req response.CallLineRequest) types.Response
}

// LineSink receives spoken lines. It is called with the session lock held and
// must not call back into the session.
type LineSink interface {
	Line(callID string, turn int, line types.Response)
}

// LineSinkFunc adapts a function to LineSink.
type LineSinkFunc func(callID string, turn int, line types.Response)

// Line implements LineSink.
func (f LineSinkFunc) Line(callID string, turn int, line types.Response) { f(callID, turn, line) }

// SessionConfig configures conversation mode.
type SessionConfig struct {
	// ConversationMode emits follow-up lines while the call is ACTIVE.
	ConversationMode bool
	// Interval between follow-up lines (default: 8s).
	Interval time.Duration
	// MaxFollowUps caps follow-up lines; zero means no cap.
	MaxFollowUps int
}

// SessionDeps are the collaborators of a session.
type SessionDeps struct {
	Lines LineSource
	Sink  LineSink         // optional
	Learn learning.Emitter // optional
}

// Session drives one call from its decision to ENDED.
type Session struct {
	id       string
	caller   types.CallerInfo
	decision types.CallDecision
	machine  *Machine
	lines    LineSource
	sink     LineSink
	learn    learning.Emitter
	cfg      SessionConfig

	mu         sync.Mutex // serialises line emission with End
	turn       int
	transcript []types.Response
	cancel     context.CancelFunc
	done       chan struct{}
	ringTimer  *time.Timer
	endOnce    sync.Once
}

// NewSession creates a session for a call already evaluated by m.
func NewSession(caller types.CallerInfo, decision types.CallDecision, m *Machine, deps SessionDeps, cfg SessionConfig) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = 8 * time.Second
	}
	if deps.Lines == nil {
		deps.Lines = response.NewDefaultEngine()
	}
	if deps.Learn == nil {
		deps.Learn = learning.Discard{}
	}
	id := decision.CallID
	if id == "" {
		id = NewCallID()
		decision.CallID = id
	}
	return &Session{
		id:       id,
		caller:   caller,
		decision: decision,
		machine:  m,
		lines:    deps.Lines,
		sink:     deps.Sink,
		learn:    deps.Learn,
		cfg:      cfg,
	}
}

// ID returns the call identifier.
func (s *Session) ID() string { return s.id }

// Decision returns the routing decision of the call.
func (s *Session) Decision() types.CallDecision { return s.decision }

// State returns the current call state.
func (s *Session) State() State { return s.machine.State() }

// Start picks the call up when the decision answers it: the call becomes
// ACTIVE, the opening line is emitted and, in conversation mode, follow-ups
// start. Declined and voicemail calls speak their single line and end.
// The follow-up task stops when ctx is done or the call ends.
func (s *Session) Start(ctx context.Context) error {
	if !s.decision.Action.Answers() {
		s.mu.Lock()
		s.emit(s.line(0))
		s.mu.Unlock()
		s.End()
		return nil
	}

	s.mu.Lock()
	if err := s.machine.Answer(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.stopRingTimer()
	s.emit(s.line(0))

	if s.cfg.ConversationMode {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.followUps(ctx)
	}
	s.mu.Unlock()
	return nil
}

// End hangs up. It is idempotent and returns once the follow-up task has
// stopped; no line is emitted afterwards. The learn signal is emitted exactly once.
func (s *Session) End() {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.machine.End()
		s.stopRingTimer()
		cancel, done, turns := s.cancel, s.done, s.turn
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		s.learn.Emit(learning.Signal{
			Source:      learning.SourceCall,
			ContactID:   s.caller.ID,
			DisplayName: s.caller.Name,
		})
		slog.Debug("call: ended", "call_id", s.id, "caller_id", s.caller.ID, "lines", turns)
	})
}

// ExpireAfter ends the call when it has not been answered within d, then runs
// onExpire. A non-positive d disables expiry. Answering or ending the call
// disarms the timer.
func (s *Session) ExpireAfter(d time.Duration, onExpire func()) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ringTimer != nil || !s.machine.State().awaitingAnswer() {
		return
	}
	s.ringTimer = time.AfterFunc(d, func() { s.expire(onExpire) })
}

func (s *Session) expire(onExpire func()) {
	s.mu.Lock()
	if !s.machine.State().awaitingAnswer() {
		s.mu.Unlock()
		return
	}
	// Ending under the lock makes a racing Start fail instead of answering.
	s.machine.End()
	s.mu.Unlock()

	slog.Debug("call: unanswered call expired", "call_id", s.id, "caller_id", s.caller.ID)
	s.End()
	if onExpire != nil {
		onExpire()
	}
}

// stopRingTimer must be called with s.mu held.
func (s *Session) stopRingTimer() {
	if s.ringTimer != nil {
		s.ringTimer.Stop()
	}
}

// Transcript returns the lines spoken so far.
func (s *Session) Transcript() []types.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Response, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	CallID     string             `json:"call_id"`
	Caller     types.CallerInfo   `json:"caller"`
	Decision   types.CallDecision `json:"decision"`
	State      State              `json:"state"`
	History    []Transition       `json:"history"`
	Transcript []types.Response   `json:"transcript"`
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		CallID:     s.id,
		Caller:     s.caller,
		Decision:   s.decision,
		State:      s.machine.State(),
		History:    s.machine.History(),
		Transcript: s.Transcript(),
	}
}

func (s *Session) followUps(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.machine.State() != StateActive || ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.emit(s.line(s.turn))
		s.mu.Unlock()

		sent++
		if s.cfg.MaxFollowUps > 0 && sent >= s.cfg.MaxFollowUps {
			return
		}
	}
}

// line renders the next line. Must be called with s.mu held.
func (s *Session) line(turn int) types.Response {
	return s.lines.CallLine(response.CallLineRequest{
		Action:     s.decision.Action,
		Tone:       s.decision.Tone,
		CallerName: s.caller.Name,
		Turn:       turn,
	})
}

// emit records and forwards a line. Must be called with s.mu held.
func (s *Session) emit(line types.Response) {
	s.transcript = append(s.transcript, line)
	if s.sink != nil {
		s.sink.Line(s.id, s.turn, line)
	}
	s.turn++
}
