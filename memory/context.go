package memory

import (
	"context"
	"fmt"
	"strings"
)

// emptyContextBlock is injected when the user has no memories or the
// feature is disabled: the assistant must admit it does not recall rather
// than invent history.
const emptyContextBlock = `USER MEMORY: none.
You have no stored memories about this user. If asked whether you remember
them or anything about them, say honestly that you do not have that
information yet. Never invent personal details or a shared history.`

// contextInstructions follows the memory listing in the system prompt.
const contextInstructions = `Use these memories to personalize your support.
STRICT RULES:
- Only reference facts that appear in the list above. Never fabricate
  memories or details that are not listed.
- Memories are for emotional context and personalization. Do not give
  factual or advisory answers about non-therapeutic topics that happen to
  appear in a memory.`

// BuildContextBlock formats records into the system-prompt block the chat
// surface prepends to every completion. Returns the empty-memory
// instruction block when no records are supplied.
func BuildContextBlock(records []*Record) string {
	if len(records) == 0 {
		return emptyContextBlock
	}

	var b strings.Builder
	b.WriteString("USER MEMORY:\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "Memory %d [Topic: %s]: %s (Importance: %d/10)\n",
			i+1, rec.Topic, rec.Content, rec.Importance)
	}
	b.WriteString("\n")
	b.WriteString(contextInstructions)
	return b.String()
}

// ContextBlock fetches the owner's most important memories, formats them
// for prompt injection, and returns the surfaced record IDs so the caller
// can mark them recalled once the completion actually uses them. Reading
// for the block does not itself bump recall counters.
func (s *Store) ContextBlock(ctx context.Context, owner string, limit int) (string, []string, error) {
	recs, err := s.ListImportant(ctx, owner, limit)
	if err != nil {
		return "", nil, err
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return BuildContextBlock(recs), ids, nil
}

// DisabledContextBlock returns the block used when the memory feature is
// switched off for the user.
func DisabledContextBlock() string {
	return emptyContextBlock
}
