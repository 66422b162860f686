// Package gate decides whether an inbound message deserves a reply.
package gate

import (
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/types"
)

// UrgencyThreshold is the urgency above which any sender gets a reply.
const UrgencyThreshold = 0.7

// Reasons reported in a Verdict.
const (
	ReasonPartner       = "partner"
	ReasonFamilyRequest = "family_request"
	ReasonUrgent        = "urgent"
	ReasonRule          = "rule"
	ReasonNone          = "none"
)

// ShouldRespond is the base predicate: the partner always gets a reply, family
// gets one for requests and anyone gets one when urgency exceeds 0.7.
func ShouldRespond(rel types.RelationshipType, a types.InputAnalysis) bool {
	return baseReason(rel, a) != ReasonNone
}

func baseReason(rel types.RelationshipType, a types.InputAnalysis) string {
	switch {
	case rel == types.RelationshipPartner:
		return ReasonPartner
	case rel == types.RelationshipFamily && a.Intent() == types.IntentRequest:
		return ReasonFamilyRequest
	case a.Urgency() > UrgencyThreshold:
		return ReasonUrgent
	}
	return ReasonNone
}

// Verdict is the outcome of a gate evaluation.
type Verdict struct {
	Respond bool   `json:"respond"`
	Reason  string `json:"reason"`
	// Rule is the expression that matched when Reason is "rule".
	Rule string `json:"rule,omitempty"`
}

type rule struct {
	expr string
	prg  cel.Program
}

// Gate extends the base predicate with CEL rules. A rule is a boolean
// expression over relationship, intent, sentiment, tone, urgency and
// personality, for example:
//
//	relationship == "FRIEND" && intent == "PHONE_ACTION"
//
// A Gate is read-only after construction and safe for concurrent use.
type Gate struct {
	rules []rule
}

// New compiles the rules. Any rule that fails to compile or does not yield a
// bool is rejected.
func New(exprs ...string) (*Gate, error) {
	g := &Gate{}
	if len(exprs) == 0 {
		return g, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("relationship", cel.StringType),
		cel.Variable("intent", cel.StringType),
		cel.Variable("sentiment", cel.StringType),
		cel.Variable("tone", cel.StringType),
		cel.Variable("urgency", cel.DoubleType),
		cel.Variable("personality", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	for _, expr := range exprs {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(issues.Err(), "invalid gate rule: %s", expr)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("gate rule must be boolean, got %s: %s", ast.OutputType(), expr)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build gate rule: %s", expr)
		}
		g.rules = append(g.rules, rule{expr: expr, prg: prg})
	}
	return g, nil
}

// Evaluate applies the base predicate, then the rules in order.
func (g *Gate) Evaluate(rel types.RelationshipType, a types.InputAnalysis) Verdict {
	if reason := baseReason(rel, a); reason != ReasonNone {
		return Verdict{Respond: true, Reason: reason}
	}
	if g == nil || len(g.rules) == 0 {
		return Verdict{Reason: ReasonNone}
	}

	vars := map[string]any{
		"relationship": string(rel),
		"intent":       string(a.Intent()),
		"sentiment":    string(a.Sentiment()),
		"tone":         string(a.EmotionalTone()),
		"urgency":      a.Urgency(),
		"personality":  string(a.PersonalityType()),
	}
	for _, r := range g.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			slog.Warn("gate: rule evaluation failed", "rule", r.expr, "error", err)
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return Verdict{Respond: true, Reason: ReasonRule, Rule: r.expr}
		}
	}
	return Verdict{Reason: ReasonNone}
}

// Rules returns the configured rule expressions.
func (g *Gate) Rules() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.rules))
	for i, r := range g.rules {
		out[i] = r.expr
	}
	return out
}
