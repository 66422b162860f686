// Package call decides how incoming calls are handled and drives each call
// through its lifecycle.
package call

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hrygo/contextsense/ai/types"
)

// State is a call lifecycle state.
type State string

const (
	StateRinging              State = "RINGING"
	StateEvaluating           State = "EVALUATING"
	StateAnswerImmediately    State = "ANSWER_IMMEDIATELY"
	StateAnswerWithGreeting   State = "ANSWER_WITH_GREETING"
	StateAnswerProfessionally State = "ANSWER_PROFESSIONALLY"
	StateDeclinePolitely      State = "DECLINE_POLITELY"
	StateSendToVoicemail      State = "SEND_TO_VOICEMAIL"
	StateActive               State = "ACTIVE"
	StateEnded                State = "ENDED"
)

// ErrInvalidTransition is returned for a transition outside the table.
var ErrInvalidTransition = errors.New("invalid call transition")

// transitions is the complete table. A hang-up may end the call from any
// state but ENDED; declined and voicemail calls never become ACTIVE.
var transitions = map[State][]State{
	StateRinging: {StateEvaluating, StateEnded},
	StateEvaluating: {
		StateAnswerImmediately, StateAnswerWithGreeting, StateAnswerProfessionally,
		StateDeclinePolitely, StateSendToVoicemail, StateEnded,
	},
	StateAnswerImmediately:    {StateActive, StateEnded},
	StateAnswerWithGreeting:   {StateActive, StateEnded},
	StateAnswerProfessionally: {StateActive, StateEnded},
	StateDeclinePolitely:      {StateEnded},
	StateSendToVoicemail:      {StateEnded},
	StateActive:               {StateEnded},
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// awaitingAnswer reports whether a call in s was routed to be answered but
// has not been picked up yet.
func (s State) awaitingAnswer() bool {
	switch s {
	case StateAnswerImmediately, StateAnswerWithGreeting, StateAnswerProfessionally:
		return true
	}
	return false
}

// stateFor maps a decision to its state.
func stateFor(a types.CallAction) State {
	return State(a)
}

// Transition is one recorded state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Machine is the state machine of a single call. Machines share nothing, so
// concurrent calls never contend.
type Machine struct {
	mu           sync.Mutex
	state        State
	history      []Transition
	now          func() time.Time
	onTransition func(from, to State)
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithClock sets the clock used to stamp transitions.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// WithTransitionHook registers a callback run after every transition, with the
// machine lock held.
func WithTransitionHook(fn func(from, to State)) MachineOption {
	return func(m *Machine) { m.onTransition = fn }
}

// NewMachine creates a machine in RINGING.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{state: StateRinging, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns a copy of the recorded transitions.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Evaluate decides the call and moves RINGING -> EVALUATING -> decision.
func (m *Machine) Evaluate(rel types.RelationshipType, likelySpam bool, opts DecideOptions) (types.CallAction, types.CallTone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.transition(StateEvaluating); err != nil {
		return "", "", err
	}
	action, tone := Decide(rel, likelySpam, opts)
	if err := m.transition(stateFor(action)); err != nil {
		return "", "", err
	}
	return action, tone, nil
}

// Answer moves an answering decision to ACTIVE.
func (m *Machine) Answer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(StateActive)
}

// End moves the call to ENDED. It reports false when the call had already ended.
func (m *Machine) End() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateEnded {
		return false
	}
	// Every other state may hang up.
	_ = m.transition(StateEnded)
	return true
}

// transition must be called with the lock held.
func (m *Machine) transition(to State) error {
	from := m.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	m.history = append(m.history, Transition{From: from, To: to, At: m.now()})
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
	return nil
}
