// Package pipeline runs the end-to-end memory flow for one chat message:
// classify, rate-limit, analyze, decide, store, notify. The pipeline is
// request-scoped and stateless; all user state is re-fetched from the
// store at the start of each run.
//
// Nothing in this package returns an error to the chat flow for memory
// reasons: every failure degrades to "no memory recorded" and the outcome
// says why.
package pipeline

import (
	"context"
	"time"

	"github.com/hatira-labs/hatira/analyzer"
	"github.com/hatira-labs/hatira/bus"
	"github.com/hatira-labs/hatira/classifier"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
	"github.com/hatira-labs/hatira/ratelimit"
	"github.com/hatira-labs/hatira/retention"
)

// Action is the pipeline's outcome category.
type Action string

const (
	// ActionStored means a memory record was written.
	ActionStored Action = "stored"

	// ActionDuplicate means an equivalent memory already exists.
	ActionDuplicate Action = "duplicate"

	// ActionTopicLimit means an automatic candidate hit the topic cap.
	ActionTopicLimit Action = "topic_limit"

	// ActionLowValue means the message did not clear the storage gates.
	ActionLowValue Action = "low_value"

	// ActionSkipped means the pipeline did not run: memory disabled,
	// user unverified, or empty input.
	ActionSkipped Action = "skipped"

	// ActionRateLimited means the user's analysis budget was exhausted.
	ActionRateLimited Action = "rate_limited"
)

// Request is one chat message entering the pipeline.
type Request struct {
	UserID          string
	Text            string
	PriorContext    string // tail of the conversation, already formatted
	ConversationRef string
	Interests       []string // profile interests, part of the topic set

	// MemoryEnabled gates the whole pipeline. When false nothing is
	// read or written; existing records stay untouched.
	MemoryEnabled bool

	// Verified gates store access. Unverified users are treated as
	// having an empty, unavailable memory set.
	Verified bool
}

// Outcome reports what the pipeline did with a message.
type Outcome struct {
	Action     Action
	MemoryID   string
	Topic      string
	Importance int
	Retagged   bool

	// SecondaryTopics are the extra accepted tags from a stored analysis,
	// for the caller to record as profile interests.
	SecondaryTopics []string

	// UserNotice is a localized message for the user, empty when the
	// outcome is silent.
	UserNotice string

	// Analysis carries the analyzer's full verdict for logging and
	// display. Nil when the pipeline skipped before analysis.
	Analysis *analyzer.Analysis

	// Refreshed listings after a store, re-fetched per the display
	// contract. Nil on non-store outcomes.
	Recent    []*memory.Record
	Important []*memory.Record
	Topics    []string
}

// listRefreshLimit bounds the refreshed display listings.
const listRefreshLimit = 10

// defaultLLMTimeout bounds the analysis completions when the config
// carries no value.
const defaultLLMTimeout = 45 * time.Second

// Pipeline wires the memory components together.
type Pipeline struct {
	store      *memory.Store
	analyzer   *analyzer.Analyzer
	retention  *retention.Engine
	limiter    ratelimit.Limiter
	events     bus.Bus
	log        *logging.Logger
	locale     string
	llmTimeout time.Duration
}

// Config configures the pipeline.
type Config struct {
	// Locale steers user notices. Default "tr".
	Locale string

	// LLMTimeout bounds the analysis completions for one message. A hung
	// provider then trips the analyzer fallbacks instead of stalling the
	// chat reply. Default 45s.
	LLMTimeout time.Duration
}

// New creates a pipeline. The limiter and bus may be nil; rate limiting
// and event publication are then skipped.
func New(store *memory.Store, an *analyzer.Analyzer, eng *retention.Engine, limiter ratelimit.Limiter, events bus.Bus, log *logging.Logger, cfg Config) *Pipeline {
	locale := cfg.Locale
	if locale == "" {
		locale = "tr"
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	if log == nil {
		log = logging.New()
	}
	return &Pipeline{
		store:      store,
		analyzer:   an,
		retention:  eng,
		limiter:    limiter,
		events:     events,
		log:        log.WithComponent("pipeline"),
		locale:     locale,
		llmTimeout: timeout,
	}
}

// ProcessMessage runs the full pipeline for one message. The returned
// outcome never carries an error the chat flow must handle; store and
// model failures degrade to non-store outcomes internally.
func (p *Pipeline) ProcessMessage(ctx context.Context, req Request) *Outcome {
	if !req.MemoryEnabled || !req.Verified || req.Text == "" {
		return &Outcome{Action: ActionSkipped}
	}

	verdict := classifier.Classify(req.Text)
	explicit := verdict.Intent == classifier.IntentExplicitSave

	// Low-value and content-free recall messages never reach the model,
	// so they never spend budget.
	if !explicit && !verdict.Memorable {
		analysis := p.analyzer.Analyze(ctx, verdict, req.PriorContext, nil)
		return &Outcome{Action: ActionLowValue, Analysis: analysis}
	}

	if p.limiter != nil && !p.limiter.TryAcquire(req.UserID) {
		p.log.WithUser(req.UserID).Warn("analysis budget exhausted")
		return &Outcome{Action: ActionRateLimited}
	}

	// Existing memories feed both the scoring prompt and the duplicate
	// check; a failed read degrades to an empty set.
	existing, err := p.store.ListRecent(ctx, req.UserID, 0)
	if err != nil {
		p.log.WithUser(req.UserID).Error("listing memories for analysis", map[string]interface{}{"error": err.Error()})
		existing = nil
	}

	// The analysis completions run under a deadline; expiry surfaces as a
	// provider error inside the analyzer and its fallbacks take over.
	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()
	analysis := p.analyzer.Analyze(llmCtx, verdict, req.PriorContext, existing)

	topicSet := memory.TopicSet(req.Interests, existing)
	decision := p.retention.Decide(analysis, explicit, topicSet)

	switch decision.Decision {
	case retention.Store:
		return p.storeMemory(ctx, req, analysis, decision, explicit)
	case retention.RejectDuplicate:
		outcome := &Outcome{Action: ActionDuplicate, Analysis: analysis}
		if explicit {
			outcome.UserNotice = p.duplicateNotice()
		}
		return outcome
	case retention.RejectTopicLimit:
		return &Outcome{Action: ActionTopicLimit, Analysis: analysis}
	default:
		return &Outcome{Action: ActionLowValue, Analysis: analysis}
	}
}

// storeMemory writes the record, publishes the change event and re-fetches
// the display listings.
func (p *Pipeline) storeMemory(ctx context.Context, req Request, analysis *analyzer.Analysis, decision *retention.Outcome, explicit bool) *Outcome {
	id, err := p.store.Create(ctx, req.UserID, decision.Topic, analysis.ExtractedMemory, req.ConversationRef, analysis.Importance, analysis.Reasoning)
	if err != nil {
		// A failed write must not block the chat reply.
		p.log.WithUser(req.UserID).Error("storing memory", map[string]interface{}{"error": err.Error()})
		return &Outcome{Action: ActionLowValue, Analysis: analysis}
	}

	p.log.WithUser(req.UserID).MemoryStored(id, decision.Topic, analysis.Importance, explicit)
	p.publish(bus.Event{
		Subject:  bus.SubjectStored,
		UserID:   req.UserID,
		MemoryID: id,
		Topic:    decision.Topic,
	})

	outcome := &Outcome{
		Action:          ActionStored,
		MemoryID:        id,
		Topic:           decision.Topic,
		Importance:      analysis.Importance,
		Retagged:        decision.Retagged,
		SecondaryTopics: decision.SecondaryTopics,
		Analysis:        analysis,
	}
	if explicit {
		if decision.Retagged {
			outcome.UserNotice = p.retaggedNotice(decision.Topic)
		} else {
			outcome.UserNotice = p.storedNotice()
		}
	}

	p.refreshListings(ctx, req.UserID, req.Interests, outcome)
	return outcome
}

// refreshListings re-fetches the recent/important/topic views after a
// mutation. Failures leave the listings nil; the caller falls back to its
// previous view.
func (p *Pipeline) refreshListings(ctx context.Context, userID string, interests []string, outcome *Outcome) {
	if recent, err := p.store.ListRecent(ctx, userID, listRefreshLimit); err == nil {
		outcome.Recent = recent
	}
	if important, err := p.store.ListImportant(ctx, userID, listRefreshLimit); err == nil {
		outcome.Important = important
	}
	if topics, err := p.store.Topics(ctx, userID, interests); err == nil {
		outcome.Topics = topics
	}
}

func (p *Pipeline) publish(event bus.Event) {
	if p.events == nil {
		return
	}
	event.At = time.Now().UTC()
	if err := p.events.Publish(event); err != nil {
		p.log.Warn("publishing memory event", map[string]interface{}{"error": err.Error()})
	}
}
