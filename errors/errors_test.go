package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	err := New(ErrCodeLLMTimeout, "importance scoring timed out")

	if err.Code() != ErrCodeLLMTimeout {
		t.Errorf("code = %v, want %v", err.Code(), ErrCodeLLMTimeout)
	}
	if err.Category() != CategoryTransient {
		t.Errorf("category = %v, want transient", err.Category())
	}
	if !err.Retryable() {
		t.Error("LLM timeout should be retryable by default")
	}
	if err.Error() != "importance scoring timed out" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCodeDefaults(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		category  ErrorCategory
		retryable bool
	}{
		{ErrCodeLLMTimeout, CategoryTransient, true},
		{ErrCodeStoreUnavailable, CategoryTransient, true},
		{ErrCodeNotFound, CategoryPermanent, false},
		{ErrCodeUnverified, CategoryPermanent, false},
		{ErrCodeTopicLimit, CategoryResource, true},
		{ErrCodeRateLimit, CategoryResource, true},
		{ErrCodeMalformedOutput, CategoryInternal, false},
		{ErrCodeDecryptFailed, CategoryInternal, false},
	}

	for _, tt := range tests {
		if got := tt.code.DefaultCategory(); got != tt.category {
			t.Errorf("%s category = %v, want %v", tt.code, got, tt.category)
		}
		if got := tt.code.DefaultRetryable(); got != tt.retryable {
			t.Errorf("%s retryable = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}

func TestWithRetryableOverride(t *testing.T) {
	err := New(ErrCodeLLMTimeout, "no more retries", WithRetryable(false))
	if err.Retryable() {
		t.Error("explicit override should win over category default")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := TopicLimit("user-1", 20)
	wrapped := Wrap(inner, "storing memory")

	if wrapped.Code() != ErrCodeTopicLimit {
		t.Errorf("wrapped code = %v, want TOPIC_LIMIT", wrapped.Code())
	}
	if wrapped.UserID() != "user-1" {
		t.Errorf("wrapped user = %q, want user-1", wrapped.UserID())
	}
	if !stderrors.Is(wrapped, inner) {
		t.Error("wrapped error should match inner via errors.Is")
	}
}

func TestWrapContextErrors(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, "similarity check")
	if err.Code() != ErrCodeLLMTimeout {
		t.Errorf("deadline exceeded should map to LLM_TIMEOUT, got %v", err.Code())
	}

	err = Wrap(context.Canceled, "similarity check")
	if err.Code() != ErrCodeCanceled {
		t.Errorf("canceled should map to CANCELED, got %v", err.Code())
	}
}

func TestWrapUnknownError(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "analyzing")
	if err.Code() != ErrCodeInternal {
		t.Errorf("unknown errors should map to INTERNAL, got %v", err.Code())
	}
	if err.Error() != "analyzing: boom" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIs(t *testing.T) {
	err := FromCode(ErrCodeTopicLimit)
	if !Is(err, ErrCodeTopicLimit) {
		t.Error("Is should match the code")
	}
	if Is(err, ErrCodeNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeTopicLimit) {
		t.Error("Is should not match plain errors")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	orig := New(ErrCodeDecryptFailed, "bad envelope",
		WithUserID("user-9"),
		WithMemoryID("mem-3"),
		WithMetadata("field", "content"))

	data, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Error
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.Code() != ErrCodeDecryptFailed {
		t.Errorf("code = %v", back.Code())
	}
	if back.UserID() != "user-9" || back.MemoryID() != "mem-3" {
		t.Errorf("ids = %q/%q", back.UserID(), back.MemoryID())
	}
	if back.Metadata()["field"] != "content" {
		t.Errorf("metadata = %v", back.Metadata())
	}
}
