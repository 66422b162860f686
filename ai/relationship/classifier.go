// Package relationship classifies contacts into social roles and flags likely spam callers.
package relationship

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/types"
)

// Signals is the vocabulary and thresholds the classifier works from.
type Signals struct {
	Endearments    []string `yaml:"endearments"`
	PartnerMarkers []string `yaml:"partner_markers"` // emoji and partner nouns
	FamilyKeywords []string `yaml:"family_keywords"`
	WorkKeywords   []string `yaml:"work_keywords"`
	// FrequencyThreshold is the RecentInteractions count that counts as high frequency.
	FrequencyThreshold int `yaml:"frequency_threshold"`
}

// DefaultSignals returns the built-in Spanish/English signals.
func DefaultSignals() Signals {
	return Signals{
		Endearments: []string{
			"amor", "mi amor", "carino", "cielo", "mi cielo", "vida", "mi vida", "corazon", "bebe",
			"gordi", "princesa", "babe", "baby", "honey", "sweetheart", "darling", "love",
		},
		PartnerMarkers: []string{
			"❤️", "💕", "💖", "💘", "😍", "😘", "🥰", "💍",
			"novio", "novia", "esposo", "esposa", "marido", "pareja",
			"boyfriend", "girlfriend", "husband", "wife", "hubby", "wifey",
		},
		FamilyKeywords: []string{
			"mama", "papa", "abuela", "abuelo", "hermano", "hermana", "tio", "tia", "primo", "prima",
			"hijo", "hija", "suegra", "suegro", "familia",
			"mom", "mum", "dad", "grandma", "grandpa", "brother", "sister", "aunt", "uncle",
			"cousin", "son", "daughter", "family",
		},
		WorkKeywords: []string{
			"jefe", "jefa", "oficina", "trabajo", "empresa", "cliente", "companero", "companera", "rrhh",
			"work", "office", "boss", "client", "colleague", "manager", "hr",
		},
		FrequencyThreshold: 20,
	}
}

// Config configures a Classifier.
type Config struct {
	Signals Signals
	// Timeout bounds each directory lookup.
	Timeout time.Duration
	Metrics metrics.Recorder
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		Signals: DefaultSignals(),
		Timeout: 200 * time.Millisecond,
	}
}

// Classifier maps a contact to a Relationship.
type Classifier struct {
	directory   Directory
	endearments lexical.Matcher
	partner     lexical.Matcher
	family      lexical.Matcher
	work        lexical.Matcher
	frequency   int
	timeout     time.Duration
	metrics     metrics.Recorder
}

// NewClassifier creates a classifier. A nil directory classifies from display
// names alone.
func NewClassifier(dir Directory, cfg Config) *Classifier {
	def := DefaultConfig()
	s := cfg.Signals
	if len(s.Endearments) == 0 {
		s.Endearments = def.Signals.Endearments
	}
	if len(s.PartnerMarkers) == 0 {
		s.PartnerMarkers = def.Signals.PartnerMarkers
	}
	if len(s.FamilyKeywords) == 0 {
		s.FamilyKeywords = def.Signals.FamilyKeywords
	}
	if len(s.WorkKeywords) == 0 {
		s.WorkKeywords = def.Signals.WorkKeywords
	}
	if s.FrequencyThreshold <= 0 {
		s.FrequencyThreshold = def.Signals.FrequencyThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Classifier{
		directory:   dir,
		endearments: lexical.NewMatcher(s.Endearments...),
		partner:     lexical.NewMatcher(s.PartnerMarkers...),
		family:      lexical.NewMatcher(s.FamilyKeywords...),
		work:        lexical.NewMatcher(s.WorkKeywords...),
		frequency:   s.FrequencyThreshold,
		timeout:     cfg.Timeout,
		metrics:     metrics.OrNop(cfg.Metrics),
	}
}

// Classify looks the contact up and classifies it. Directory failures are
// treated as "no record"; Classify never fails.
func (c *Classifier) Classify(ctx context.Context, contactID, displayName string) types.Relationship {
	entry, found := c.lookup(ctx, contactID)
	if displayName == "" {
		displayName = entry.DisplayName
	}
	return c.ClassifyEntry(displayName, entry, found)
}

func (c *Classifier) lookup(ctx context.Context, contactID string) (Entry, bool) {
	if c.directory == nil || contactID == "" {
		return Entry{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entry, err := c.directory.Lookup(ctx, contactID)
	switch {
	case err == nil:
		return entry, true
	case errors.Is(err, ErrNotFound):
		return Entry{}, false
	default:
		reason := "error"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		slog.Warn("relationship: directory unavailable, treating contact as unknown",
			"contact_id", contactID,
			"reason", reason,
			"error", err,
		)
		c.metrics.RecordFallback("directory", reason)
		return Entry{}, false
	}
}

// ClassifyEntry classifies from a display name and directory entry. found is
// false when the directory had no record.
//
// PARTNER needs two of: an endearment in the name, a partner marker in the
// name, high contact frequency. Otherwise FAMILY, FRIEND, WORK and UNKNOWN are
// tried in that order.
func (c *Classifier) ClassifyEntry(displayName string, entry Entry, found bool) types.Relationship {
	partnerSignals := 0
	if c.endearments.Matches(displayName) {
		partnerSignals++
	}
	if c.partner.Matches(displayName) {
		partnerSignals++
	}
	if found && entry.RecentInteractions >= c.frequency {
		partnerSignals++
	}
	if partnerSignals >= 2 {
		return types.Relationship{
			Type:       types.RelationshipPartner,
			Confidence: types.Clamp01(0.5 + 0.15*float64(partnerSignals)),
		}
	}

	familyGroup := found && entry.Group == GroupFamily
	familyName := c.family.Matches(displayName)
	if familyGroup || familyName {
		return types.Relationship{Type: types.RelationshipFamily, Confidence: groupConfidence(familyGroup, familyName, 0.9)}
	}

	if found && entry.Group == GroupFriend {
		return types.Relationship{Type: types.RelationshipFriend, Confidence: 0.8}
	}
	if found && entry.Favorite {
		return types.Relationship{Type: types.RelationshipFriend, Confidence: 0.6}
	}

	workGroup := found && entry.Group == GroupWork
	workName := c.work.Matches(displayName)
	if workGroup || workName {
		return types.Relationship{Type: types.RelationshipWork, Confidence: groupConfidence(workGroup, workName, 0.85)}
	}

	return types.UnknownRelationship()
}

// groupConfidence scores a group match: the directory group alone gives
// directory, the name alone a weaker 0.6, both together 0.95.
func groupConfidence(byGroup, byName bool, directory float64) float64 {
	switch {
	case byGroup && byName:
		return 0.95
	case byGroup:
		return directory
	default:
		return 0.6
	}
}
