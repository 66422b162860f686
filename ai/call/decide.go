package call

import "github.com/hrygo/contextsense/ai/types"

// DecideOptions adjusts call routing.
type DecideOptions struct {
	// DoNotDisturb sends every call except the partner's to voicemail.
	DoNotDisturb bool
}

// Decide routes an incoming call from the caller's relationship and the spam
// heuristic. likelySpam only matters for UNKNOWN callers.
//
// FAMILY, FRIEND and WORK share ANSWER_WITH_GREETING and differ in tone only.
func Decide(rel types.RelationshipType, likelySpam bool, opts DecideOptions) (types.CallAction, types.CallTone) {
	if opts.DoNotDisturb && rel != types.RelationshipPartner {
		return types.ActionSendToVoicemail, types.CallTonePolite
	}

	switch rel {
	case types.RelationshipPartner:
		return types.ActionAnswerImmediately, types.CallToneIntimate
	case types.RelationshipFamily, types.RelationshipFriend:
		return types.ActionAnswerWithGreeting, types.CallToneWarm
	case types.RelationshipWork:
		return types.ActionAnswerWithGreeting, types.CallToneProfessional
	}

	if likelySpam {
		return types.ActionDeclinePolitely, types.CallTonePolite
	}
	return types.ActionAnswerProfessionally, types.CallToneFormal
}
