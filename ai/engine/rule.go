package engine

// RuleEngine is the deterministic strategy: replies come from the template
// engine.
type RuleEngine struct {
	*pipeline
}

var _ Engine = (*RuleEngine)(nil)
