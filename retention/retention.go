// Package retention makes the final store-or-reject decision for a
// candidate memory. The analyzer scores; this engine enforces the hard
// gates: the duplicate verdict, the 6-point automatic importance floor and
// the distinct-topic cap.
package retention

import (
	"strings"

	"github.com/hatira-labs/hatira/analyzer"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
)

const (
	// DefaultMaxTopics caps a user's distinct topic set.
	DefaultMaxTopics = 20

	// automaticFloor is the minimum importance for non-explicit storage.
	// This is the authoritative final gate, distinct from the analyzer's
	// own default-shouldStore heuristic.
	automaticFloor = 6

	// defaultFallbackTopic re-tags an explicit save whose novel topic would
	// breach the cap. Explicitly requested data is never dropped for a
	// topic-bookkeeping limit.
	defaultFallbackTopic = "Genel Anı"
)

// Decision is the final action for a candidate memory.
type Decision int

const (
	// Store writes the record.
	Store Decision = iota

	// RejectDuplicate drops the candidate because an equivalent memory
	// exists. Surfaced to the user only in explicit-save flows.
	RejectDuplicate

	// RejectTopicLimit drops an automatic candidate whose novel primary
	// topic would exceed the cap. Surfaced as an explicit error signal.
	RejectTopicLimit

	// RejectLowValue drops a candidate below the storage gates. Never
	// surfaced to the user.
	RejectLowValue
)

func (d Decision) String() string {
	switch d {
	case Store:
		return "store"
	case RejectDuplicate:
		return "reject_duplicate"
	case RejectTopicLimit:
		return "reject_topic_limit"
	default:
		return "reject_low_value"
	}
}

// Outcome is the engine's verdict plus the storage parameters the caller
// should use when Decision is Store.
type Outcome struct {
	Decision Decision

	// Topic is the primary topic to store under, after any fallback
	// re-tagging.
	Topic string

	// Retagged reports that the primary topic was replaced by the fallback
	// topic to honor the cap on an explicit save.
	Retagged bool

	// SecondaryTopics are the extra tags accepted as user interests after
	// cap filtering. Tags beyond the cap are dropped silently.
	SecondaryTopics []string
}

// Config configures the engine.
type Config struct {
	// MaxTopics caps the distinct topic set. Default 20.
	MaxTopics int

	// FallbackTopic re-tags capped explicit saves. Default "Genel Anı".
	FallbackTopic string
}

// Engine applies the retention policy.
type Engine struct {
	maxTopics     int
	fallbackTopic string
	log           *logging.Logger
}

// New creates a retention engine.
func New(log *logging.Logger, cfg Config) *Engine {
	maxTopics := cfg.MaxTopics
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	fallback := cfg.FallbackTopic
	if fallback == "" {
		fallback = defaultFallbackTopic
	}
	if log == nil {
		log = logging.New()
	}
	return &Engine{
		maxTopics:     maxTopics,
		fallbackTopic: fallback,
		log:           log.WithComponent("retention"),
	}
}

// MaxTopics returns the configured topic cap.
func (e *Engine) MaxTopics() int {
	return e.maxTopics
}

// Decide produces the final action for an analyzed candidate. topicSet is
// the user's current distinct topic set (interests plus stored topics);
// explicit marks a direct save request, which bypasses the importance
// floor but not the duplicate check.
func (e *Engine) Decide(analysis *analyzer.Analysis, explicit bool, topicSet []string) *Outcome {
	if analysis.IsDuplicate {
		e.log.MemoryRejected("duplicate", analysis.Importance)
		return &Outcome{Decision: RejectDuplicate}
	}

	if !explicit && (!analysis.ShouldStore || analysis.Importance < automaticFloor) {
		e.log.MemoryRejected("low_value", analysis.Importance)
		return &Outcome{Decision: RejectLowValue}
	}
	if explicit && !analysis.ShouldStore {
		e.log.MemoryRejected("low_value", analysis.Importance)
		return &Outcome{Decision: RejectLowValue}
	}

	primary := primaryTopic(analysis.Topics, e.fallbackTopic)
	outcome := &Outcome{Decision: Store, Topic: primary}

	atCap := len(topicSet) >= e.maxTopics
	if atCap && !memory.ContainsTopic(topicSet, primary) {
		if !explicit {
			e.log.MemoryRejected("topic_limit", analysis.Importance)
			return &Outcome{Decision: RejectTopicLimit}
		}
		// Explicit saves are re-tagged instead of dropped.
		outcome.Topic = e.fallbackTopic
		outcome.Retagged = true
	}

	outcome.SecondaryTopics = e.filterSecondary(analysis.Topics, topicSet, outcome.Topic)
	return outcome
}

// filterSecondary accepts secondary tags that fit under the cap, counting
// the primary topic's own contribution first. Overflow tags drop silently.
func (e *Engine) filterSecondary(topics, topicSet []string, primary string) []string {
	if len(topics) < 2 {
		return nil
	}

	distinct := len(topicSet)
	if !memory.ContainsTopic(topicSet, primary) {
		distinct++
	}

	var accepted []string
	seen := []string{primary}
	for _, t := range topics[1:] {
		t = strings.TrimSpace(t)
		if t == "" || memory.ContainsTopic(seen, t) {
			continue
		}
		seen = append(seen, t)
		if memory.ContainsTopic(topicSet, t) {
			accepted = append(accepted, t)
			continue
		}
		if distinct >= e.maxTopics {
			continue
		}
		distinct++
		accepted = append(accepted, t)
	}
	return accepted
}

// primaryTopic returns the first topic tag, or the fallback when the
// analyzer produced none.
func primaryTopic(topics []string, fallback string) string {
	for _, t := range topics {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
