package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/contextsense/ai/types"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		rel    types.RelationshipType
		spam   bool
		opts   DecideOptions
		action types.CallAction
		tone   types.CallTone
	}{
		{"partner", types.RelationshipPartner, false, DecideOptions{}, types.ActionAnswerImmediately, types.CallToneIntimate},
		{"partner spam flag ignored", types.RelationshipPartner, true, DecideOptions{}, types.ActionAnswerImmediately, types.CallToneIntimate},
		{"family", types.RelationshipFamily, false, DecideOptions{}, types.ActionAnswerWithGreeting, types.CallToneWarm},
		{"friend", types.RelationshipFriend, false, DecideOptions{}, types.ActionAnswerWithGreeting, types.CallToneWarm},
		{"work", types.RelationshipWork, false, DecideOptions{}, types.ActionAnswerWithGreeting, types.CallToneProfessional},
		{"unknown spam", types.RelationshipUnknown, true, DecideOptions{}, types.ActionDeclinePolitely, types.CallTonePolite},
		{"unknown", types.RelationshipUnknown, false, DecideOptions{}, types.ActionAnswerProfessionally, types.CallToneFormal},
		{"do not disturb", types.RelationshipFamily, false, DecideOptions{DoNotDisturb: true}, types.ActionSendToVoicemail, types.CallTonePolite},
		{"do not disturb lets partner through", types.RelationshipPartner, false, DecideOptions{DoNotDisturb: true}, types.ActionAnswerImmediately, types.CallToneIntimate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, tone := Decide(tt.rel, tt.spam, tt.opts)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.tone, tone)
		})
	}
}

func TestMachine_AnsweredCall(t *testing.T) {
	var seen []State
	m := NewMachine(WithTransitionHook(func(_, to State) { seen = append(seen, to) }))
	assert.Equal(t, StateRinging, m.State())

	action, tone, err := m.Evaluate(types.RelationshipPartner, false, DecideOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.ActionAnswerImmediately, action)
	assert.Equal(t, types.CallToneIntimate, tone)
	assert.Equal(t, StateAnswerImmediately, m.State())

	require.NoError(t, m.Answer())
	assert.Equal(t, StateActive, m.State())

	assert.True(t, m.End())
	assert.False(t, m.End(), "ending twice is a no-op")

	assert.Equal(t, []State{StateEvaluating, StateAnswerImmediately, StateActive, StateEnded}, seen)
	history := m.History()
	require.Len(t, history, 4)
	assert.Equal(t, StateRinging, history[0].From)
	assert.Equal(t, StateEnded, history[3].To)
}

func TestMachine_DeclinedCallNeverActive(t *testing.T) {
	m := NewMachine()
	action, _, err := m.Evaluate(types.RelationshipUnknown, true, DecideOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.ActionDeclinePolitely, action)

	err = m.Answer()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.True(t, m.End())
	for _, tr := range m.History() {
		assert.NotEqual(t, StateActive, tr.To)
	}
}

func TestMachine_HangUpWhileRinging(t *testing.T) {
	m := NewMachine()
	assert.True(t, m.End())
	assert.Equal(t, StateEnded, m.State())

	_, _, err := m.Evaluate(types.RelationshipFriend, false, DecideOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_EvaluateTwice(t *testing.T) {
	m := NewMachine()
	_, _, err := m.Evaluate(types.RelationshipFriend, false, DecideOptions{})
	require.NoError(t, err)
	_, _, err = m.Evaluate(types.RelationshipFriend, false, DecideOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateAnswerWithGreeting, m.State())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateRinging, StateEvaluating))
	assert.True(t, CanTransition(StateActive, StateEnded))
	assert.False(t, CanTransition(StateRinging, StateActive))
	assert.False(t, CanTransition(StateSendToVoicemail, StateActive))
	assert.False(t, CanTransition(StateEnded, StateRinging))
}
