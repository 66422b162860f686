package response

import (
	"github.com/hrygo/contextsense/ai/types"
)

// CallLineRequest asks for the line spoken at one turn of a call.
type CallLineRequest struct {
	Action     types.CallAction
	Tone       types.CallTone
	CallerName string
	// Turn 0 is the opening line; later turns are conversation-mode follow-ups.
	Turn int
}

// CallLine renders the line for a call turn. Declined and voicemail calls only
// have an opening line.
func (e *Engine) CallLine(req CallLineRequest) types.Response {
	vars := map[string]string{"name": req.CallerName}
	resp := types.Response{
		Tone:             string(req.Tone),
		ExpressionTag:    callExpression(req.Tone),
		SuggestedActions: []string{},
		Confidence:       ConfidenceExact,
	}

	var texts []string
	switch req.Action {
	case types.ActionDeclinePolitely:
		texts = e.templates.Decline
	case types.ActionSendToVoicemail:
		texts = e.templates.Voicemail
	default:
		script := e.templates.Calls[req.Tone]
		if req.Turn <= 0 {
			texts = script.Opening
		} else if n := len(script.FollowUps); n > 0 {
			texts = []string{script.FollowUps[(req.Turn-1)%n]}
			resp.Confidence = ConfidenceIntent
		}
	}

	if len(texts) == 0 {
		fb := e.Fallback()
		fb.Tone = resp.Tone
		return fb
	}
	resp.Text = render(pick(texts, req.CallerName), vars)
	if resp.Text == "" {
		fb := e.Fallback()
		fb.Tone = resp.Tone
		return fb
	}
	return resp
}

func callExpression(tone types.CallTone) string {
	switch tone {
	case types.CallToneIntimate:
		return ExpressionLove
	case types.CallToneWarm:
		return ExpressionExcited
	default:
		return ExpressionNeutral
	}
}
