// Package similarity judges whether a candidate memory duplicates one the
// user already has. The judgment is delegated to the completion model: the
// checker sends the candidate plus the existing set and the model returns a
// 0-100 score and a verdict. Any failure degrades to "not a duplicate" so a
// flaky model can never block a legitimate store.
package similarity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hatira-labs/hatira/llm"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
)

// maxCompletionTokens bounds the similarity verdict response.
const maxCompletionTokens = 1024

// Result is the outcome of one duplicate check.
type Result struct {
	IsDuplicate    bool   `json:"isDuplicate"`
	Similarity     int    `json:"similarity"` // 0-100, highest across the set
	SimilarID      string `json:"similarId,omitempty"`
	SimilarContent string `json:"similarContent,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
}

// verdict is the strict JSON shape the model must return.
type verdict struct {
	IsDuplicate          bool    `json:"isDuplicate"`
	HighestSimilarity    float64 `json:"highestSimilarity"`
	SimilarMemoryID      *string `json:"similarMemoryId"`
	SimilarMemoryContent *string `json:"similarMemoryContent"`
	Reasoning            string  `json:"reasoning"`
}

// Checker compares candidate content against existing memories.
type Checker struct {
	provider llm.Provider
	log      *logging.Logger
}

// NewChecker creates a similarity checker over the given provider.
func NewChecker(provider llm.Provider, log *logging.Logger) *Checker {
	if log == nil {
		log = logging.New()
	}
	return &Checker{
		provider: provider,
		log:      log.WithComponent("similarity"),
	}
}

// Check compares candidate content against the existing set. An empty set
// returns a non-duplicate result without touching the network. Provider or
// parse failures also return non-duplicate: false negatives cost a stray
// near-copy, false positives cost a real memory.
func (c *Checker) Check(ctx context.Context, candidate string, existing []*memory.Record) (*Result, error) {
	if len(existing) == 0 {
		return &Result{IsDuplicate: false, Similarity: 0}, nil
	}

	req := llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(candidate, existing)},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.1,
	}

	start := time.Now()
	resp, err := c.provider.Chat(ctx, req)
	if err != nil {
		c.log.LLMFallback("similarity", err)
		return &Result{IsDuplicate: false}, nil
	}

	var v verdict
	if err := llm.ExtractObject(resp.Content, &v); err != nil {
		c.log.LLMFallback("similarity-parse", err)
		return &Result{IsDuplicate: false}, nil
	}

	result := &Result{
		IsDuplicate: v.IsDuplicate,
		Similarity:  clampScore(v.HighestSimilarity),
		Reasoning:   v.Reasoning,
	}
	if v.SimilarMemoryID != nil {
		result.SimilarID = *v.SimilarMemoryID
	}
	if v.SimilarMemoryContent != nil {
		result.SimilarContent = *v.SimilarMemoryContent
	}

	c.log.Debug("similarity check complete", map[string]interface{}{
		"duplicate":  result.IsDuplicate,
		"similarity": result.Similarity,
		"existing":   len(existing),
		"duration":   time.Since(start).String(),
	})
	return result, nil
}

// CheckDuplicate implements memory.DuplicateChecker for the purge sweep.
func (c *Checker) CheckDuplicate(ctx context.Context, candidate string, existing []*memory.Record) (bool, string, int) {
	result, err := c.Check(ctx, candidate, existing)
	if err != nil || result == nil {
		return false, "", 0
	}
	return result.IsDuplicate, result.SimilarID, result.Similarity
}

// buildUserPrompt lists the existing set as numbered, ID-tagged lines
// followed by the candidate.
func buildUserPrompt(candidate string, existing []*memory.Record) string {
	var b strings.Builder
	b.WriteString("EXISTING MEMORIES:\n")
	for i, rec := range existing {
		fmt.Fprintf(&b, "%d. [id: %s] %s\n", i+1, rec.ID, rec.Content)
	}
	b.WriteString("\nCANDIDATE MEMORY:\n")
	b.WriteString(candidate)
	return b.String()
}

func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
