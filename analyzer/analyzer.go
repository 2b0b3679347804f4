// Package analyzer scores candidate messages for long-term storage.
//
// The analyzer sits between the classifier and the retention engine. For
// ordinary candidates it asks the completion model for an importance score,
// an extracted memory statement and topic tags; explicit save requests and
// generic recall questions bypass the scoring call entirely. Every failure
// path degrades to "don't store", never to an error that could reach the
// chat flow.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hatira-labs/hatira/classifier"
	"github.com/hatira-labs/hatira/llm"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
	"github.com/hatira-labs/hatira/similarity"
)

const (
	// explicitFloor is the minimum importance for an explicit save request.
	explicitFloor = 6

	// duplicateImportance marks a verdict demoted for duplication.
	duplicateImportance = 2

	// recallImportance marks a content-free recall question.
	recallImportance = 2

	// fallbackImportance is the verdict when the scoring call fails outright.
	fallbackImportance = 3

	// parseFallbackImportance is the verdict when the call succeeded but no
	// JSON could be extracted from the completion.
	parseFallbackImportance = 5

	// parseFallbackContentLen caps the extracted memory in the parse
	// fallback.
	parseFallbackContentLen = 100

	// lowWatermark switches the default store threshold: users with fewer
	// than this many memories store at importance 5, others at 6.
	lowWatermark = 15

	// maxTopics caps the topic tags a single analysis may emit.
	maxTopics = 3

	// maxCompletionTokens bounds the scoring response.
	maxCompletionTokens = 1024
)

// conversationTopic tags verdicts with no extractable fact and the
// parse-fallback record.
const conversationTopic = "Sohbet"

// Analysis is the analyzer's verdict on one message.
type Analysis struct {
	Importance      int      `json:"importance"` // 1-10
	ExtractedMemory string   `json:"extractedMemory"`
	Topics          []string `json:"topics"` // 1-3, primary first
	Reasoning       string   `json:"reasoning"`
	ShouldStore     bool     `json:"shouldStore"`
	UsedLLM         bool     `json:"usedLlm"`

	// Duplicate detail, set when the similarity gate fired.
	IsDuplicate    bool   `json:"isDuplicate,omitempty"`
	DuplicateID    string `json:"duplicateId,omitempty"`
	DuplicateScore int    `json:"duplicateScore,omitempty"`
}

// scoringResponse is the strict JSON shape the model must return.
type scoringResponse struct {
	Importance      float64  `json:"importance"`
	ExtractedMemory string   `json:"extractedMemory"`
	Topics          []string `json:"topics"`
	Reasoning       string   `json:"reasoning"`
	ShouldStore     *bool    `json:"shouldStore"`
}

// Analyzer scores messages with up to two sequential completion calls:
// importance scoring, then the similarity gate.
type Analyzer struct {
	provider llm.Provider
	checker  *similarity.Checker
	log      *logging.Logger
	locale   string
}

// Config configures the analyzer.
type Config struct {
	// Locale steers the output language of memory text and topics.
	// Default "tr".
	Locale string
}

// New creates an analyzer over the given provider and similarity checker.
func New(provider llm.Provider, checker *similarity.Checker, log *logging.Logger, cfg Config) *Analyzer {
	locale := cfg.Locale
	if locale == "" {
		locale = "tr"
	}
	if log == nil {
		log = logging.New()
	}
	return &Analyzer{
		provider: provider,
		checker:  checker,
		log:      log.WithComponent("analyzer"),
		locale:   locale,
	}
}

// Analyze produces a storage verdict for one classified message.
// priorContext is the tail of the conversation; existing is the user's
// current memory set, re-fetched by the caller per pipeline run.
func (a *Analyzer) Analyze(ctx context.Context, verdict classifier.Verdict, priorContext string, existing []*memory.Record) *Analysis {
	start := time.Now()
	a.log.AnalysisStart(verdict.Intent.String(), len(existing))

	var analysis *Analysis
	switch {
	case verdict.Intent == classifier.IntentExplicitSave:
		analysis = a.analyzeExplicit(ctx, verdict.Content, existing)
	case !verdict.Memorable:
		analysis = a.analyzeNonMemorable()
	default:
		analysis = a.analyzeCandidate(ctx, verdict.Content, priorContext, existing)
	}

	a.log.AnalysisComplete(analysis.Importance, analysis.ShouldStore, analysis.UsedLLM, time.Since(start))
	return analysis
}

// analyzeExplicit handles a direct save instruction: no scoring call, a
// fixed importance floor, and storage forced unless the similarity gate
// flags a duplicate.
func (a *Analyzer) analyzeExplicit(ctx context.Context, content string, existing []*memory.Record) *Analysis {
	analysis := &Analysis{
		Importance:      explicitFloor,
		ExtractedMemory: content,
		Topics:          []string{a.explicitTopic()},
		Reasoning:       a.explicitReasoning(),
		ShouldStore:     true,
	}

	a.applySimilarityGate(ctx, analysis, existing)
	if analysis.IsDuplicate {
		analysis.Importance = duplicateImportance
	}
	return analysis
}

// analyzeNonMemorable handles generic recall questions and low-value
// messages: fixed verdict, no network.
func (a *Analyzer) analyzeNonMemorable() *Analysis {
	return &Analysis{
		Importance:  recallImportance,
		Topics:      []string{conversationTopic},
		Reasoning:   a.nonMemorableReasoning(),
		ShouldStore: false,
	}
}

// analyzeCandidate scores an ordinary message with the completion model.
func (a *Analyzer) analyzeCandidate(ctx context.Context, content, priorContext string, existing []*memory.Record) *Analysis {
	req := llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: a.scoringPrompt()},
			{Role: "user", Content: buildScoringInput(content, priorContext, existing)},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.2,
	}

	resp, err := a.provider.Chat(ctx, req)
	if err != nil {
		a.log.LLMFallback("scoring", err)
		return &Analysis{
			Importance:  fallbackImportance,
			Topics:      []string{conversationTopic},
			Reasoning:   a.failureReasoning(),
			ShouldStore: false,
			UsedLLM:     true,
		}
	}

	analysis := a.parseScoring(resp.Content, content, existing)
	analysis.UsedLLM = true

	if analysis.ShouldStore {
		a.applySimilarityGate(ctx, analysis, existing)
	}
	return analysis
}

// parseScoring extracts the scoring JSON, falling back to a default record
// when the completion carries no parseable object.
func (a *Analyzer) parseScoring(completion, content string, existing []*memory.Record) *Analysis {
	var resp scoringResponse
	if err := llm.ExtractObject(completion, &resp); err != nil {
		a.log.LLMFallback("scoring-parse", err)
		return &Analysis{
			Importance:      parseFallbackImportance,
			ExtractedMemory: truncateRunes(content, parseFallbackContentLen),
			Topics:          []string{conversationTopic},
			Reasoning:       a.parseFallbackReasoning(),
			ShouldStore:     len(existing) == 0,
		}
	}

	importance := clampImportance(int(resp.Importance))
	extracted := strings.TrimSpace(resp.ExtractedMemory)
	if extracted == "" {
		extracted = truncateRunes(content, parseFallbackContentLen)
	}

	topics := normalizeTopics(resp.Topics)
	if len(topics) == 0 {
		topics = []string{conversationTopic}
	}

	shouldStore := a.defaultShouldStore(importance, len(existing))
	if resp.ShouldStore != nil {
		shouldStore = *resp.ShouldStore
	}

	return &Analysis{
		Importance:      importance,
		ExtractedMemory: extracted,
		Topics:          topics,
		Reasoning:       resp.Reasoning,
		ShouldStore:     shouldStore,
	}
}

// defaultShouldStore applies the threshold used when the model omits the
// shouldStore field: 5 for users still building a memory set, 6 once they
// hold lowWatermark or more.
func (a *Analyzer) defaultShouldStore(importance, existingCount int) bool {
	if existingCount < lowWatermark {
		return importance >= 5
	}
	return importance >= 6
}

// applySimilarityGate runs the duplicate check when storage is intended and
// prior memories exist. A detected duplicate flips shouldStore off and
// appends the checker's reasoning.
func (a *Analyzer) applySimilarityGate(ctx context.Context, analysis *Analysis, existing []*memory.Record) {
	if !analysis.ShouldStore || len(existing) == 0 || a.checker == nil {
		return
	}

	result, err := a.checker.Check(ctx, analysis.ExtractedMemory, existing)
	if err != nil || result == nil || !result.IsDuplicate {
		return
	}

	analysis.ShouldStore = false
	analysis.IsDuplicate = true
	analysis.DuplicateID = result.SimilarID
	analysis.DuplicateScore = result.Similarity
	if result.Reasoning != "" {
		if analysis.Reasoning != "" {
			analysis.Reasoning += " | "
		}
		analysis.Reasoning += result.Reasoning
	}
}

// buildScoringInput joins the prior context, the new message and the
// existing memory listing into the user message.
func buildScoringInput(content, priorContext string, existing []*memory.Record) string {
	var b strings.Builder
	if priorContext != "" {
		b.WriteString("CONVERSATION CONTEXT:\n")
		b.WriteString(priorContext)
		b.WriteString("\n\n")
	}
	b.WriteString("NEW MESSAGE:\n")
	b.WriteString(content)
	if len(existing) > 0 {
		b.WriteString("\n\nEXISTING MEMORIES:\n")
		for _, rec := range existing {
			fmt.Fprintf(&b, "[%s]: %s\n", rec.Topic, rec.Content)
		}
	}
	return b.String()
}

// normalizeTopics trims, drops empties and caps the tag list.
func normalizeTopics(topics []string) []string {
	var out []string
	for _, t := range topics {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == maxTopics {
			break
		}
	}
	return out
}

func clampImportance(importance int) int {
	if importance < 1 {
		return 1
	}
	if importance > 10 {
		return 10
	}
	return importance
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
