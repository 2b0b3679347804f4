// Package errors provides the structured error taxonomy for the memory
// subsystem. Every failure that crosses a package boundary carries a code
// and a category so callers can decide between the conservative fallback
// paths (degrade to "don't store") and user-visible policy outcomes.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: temporary failures where retry may succeed (LLM timeouts,
//     store connectivity)
//   - Permanent: failures where retry will not help (not found, policy
//     violations, unverified user)
//   - Resource: exhaustion issues (rate limits, topic cap)
//   - Internal: unexpected errors indicating bugs
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeLLMTimeout, "importance scoring timed out")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "analyzing message")
//
// Check for a policy outcome:
//
//	if errors.Is(err, errors.ErrCodeTopicLimit) {
//	    // surface to the user on explicit save requests only
//	}
package errors
