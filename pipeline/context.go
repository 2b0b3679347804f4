package pipeline

import (
	"context"

	"github.com/hatira-labs/hatira/memory"
)

// contextLimit bounds the memories injected into a completion.
const contextLimit = 10

// ContextBlock builds the system-prompt memory block for a chat
// completion. It returns the surfaced record IDs so the caller can mark
// them recalled once the completion is actually sent. Disabled or
// unverified users get the no-memory block and no IDs.
func (p *Pipeline) ContextBlock(ctx context.Context, userID string, memoryEnabled, verified bool) (string, []string) {
	if !memoryEnabled || !verified {
		return memory.DisabledContextBlock(), nil
	}

	block, ids, err := p.store.ContextBlock(ctx, userID, contextLimit)
	if err != nil {
		// Store trouble degrades to the default context, never an error.
		p.log.WithUser(userID).Error("building memory context", map[string]interface{}{"error": err.Error()})
		return memory.DisabledContextBlock(), nil
	}
	return block, ids
}

// MarkRecalled records that the given memories were used in a completion.
// Individual failures are logged and skipped; recall marking is
// best-effort bookkeeping.
func (p *Pipeline) MarkRecalled(ctx context.Context, userID string, ids []string) {
	for _, id := range ids {
		if err := p.store.IncrementRecall(ctx, userID, id); err != nil {
			p.log.WithUser(userID).Warn("marking recall", map[string]interface{}{"memoryId": id, "error": err.Error()})
		}
	}
}
