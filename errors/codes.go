package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: LLM timeouts, temporary store unavailability.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: record not found, unverified user, policy rejection.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates resource exhaustion or quota issues.
	// Examples: LLM rate limiting, topic cap reached.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the memory subsystem's failure scenarios.
const (
	// Transient errors
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"       // Completion call timed out
	ErrCodeLLMUnavailable   ErrorCode = "LLM_UNAVAILABLE"   // Completion service unreachable
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // Document store unreachable
	ErrCodeNetworkErr       ErrorCode = "NETWORK_ERR"       // Network connectivity issue

	// Permanent errors
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"        // Memory record does not exist
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"    // Malformed or invalid input
	ErrCodeUnverified      ErrorCode = "UNVERIFIED"       // User identity not verified
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"        // Store denied the operation
	ErrCodeMemoryDisabled  ErrorCode = "MEMORY_DISABLED"  // Pipeline gated off by preference
	ErrCodeCanceled        ErrorCode = "CANCELED"         // Operation was canceled

	// Resource errors
	ErrCodeRateLimit  ErrorCode = "RATE_LIMITED" // Per-user analysis budget exhausted
	ErrCodeTopicLimit ErrorCode = "TOPIC_LIMIT"  // Distinct-topic cap reached

	// Internal errors
	ErrCodeInternal        ErrorCode = "INTERNAL"         // Unexpected internal error
	ErrCodeMalformedOutput ErrorCode = "MALFORMED_OUTPUT" // Model output not parseable
	ErrCodeDecryptFailed   ErrorCode = "DECRYPT_FAILED"   // Content envelope failed to open
	ErrCodeEncryptFailed   ErrorCode = "ENCRYPT_FAILED"   // Content envelope failed to seal
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeLLMTimeout, ErrCodeLLMUnavailable, ErrCodeStoreUnavailable, ErrCodeNetworkErr:
		return CategoryTransient

	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeUnverified, ErrCodeForbidden,
		ErrCodeMemoryDisabled, ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeRateLimit, ErrCodeTopicLimit:
		return CategoryResource

	case ErrCodeInternal, ErrCodeMalformedOutput, ErrCodeDecryptFailed, ErrCodeEncryptFailed:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeLLMTimeout:       "completion call timed out",
	ErrCodeLLMUnavailable:   "completion service unavailable",
	ErrCodeStoreUnavailable: "document store unavailable",
	ErrCodeNetworkErr:       "network connectivity error",
	ErrCodeNotFound:         "memory record not found",
	ErrCodeInvalidInput:     "invalid input provided",
	ErrCodeUnverified:       "user identity not verified",
	ErrCodeForbidden:        "access denied by store",
	ErrCodeMemoryDisabled:   "memory feature disabled",
	ErrCodeCanceled:         "operation canceled",
	ErrCodeRateLimit:        "analysis rate limit exceeded",
	ErrCodeTopicLimit:       "distinct topic limit reached",
	ErrCodeInternal:         "internal error",
	ErrCodeMalformedOutput:  "model output not parseable",
	ErrCodeDecryptFailed:    "content decryption failed",
	ErrCodeEncryptFailed:    "content encryption failed",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
