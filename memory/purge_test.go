package memory

import (
	"context"
	"strings"
	"testing"
	"time"
)

// stubChecker flags a pair as duplicate when both contents share a marker
// substring.
type stubChecker struct {
	marker string
	calls  int
}

func (c *stubChecker) CheckDuplicate(ctx context.Context, candidate string, existing []*Record) (bool, string, int) {
	c.calls++
	if len(existing) == 0 {
		return false, "", 0
	}
	if strings.Contains(candidate, c.marker) && strings.Contains(existing[0].Content, c.marker) {
		return true, existing[0].ID, 90
	}
	return false, "", 0
}

func TestPurgeDuplicatesKeepsHigherImportance(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	lowID, err := store.Create(ctx, "user-1", "İş", "DUP iş stresi yaşıyor", "", 4, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	highID, err := store.Create(ctx, "user-1", "İş", "DUP işinde stres altında", "", 8, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	uniqueID, err := store.Create(ctx, "user-1", "Spor", "koşuya çıkıyor", "", 5, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	checker := &stubChecker{marker: "DUP"}
	result, err := store.PurgeDuplicates(ctx, "user-1", checker)
	if err != nil {
		t.Fatalf("PurgeDuplicates failed: %v", err)
	}

	if result.Scanned != 3 {
		t.Errorf("scanned = %d, want 3", result.Scanned)
	}
	if result.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", result.Deleted)
	}

	if rec, _ := store.GetByID(ctx, "user-1", lowID); rec != nil {
		t.Error("low-importance duplicate survived")
	}
	if rec, _ := store.GetByID(ctx, "user-1", highID); rec == nil {
		t.Error("high-importance duplicate was deleted")
	}
	if rec, _ := store.GetByID(ctx, "user-1", uniqueID); rec == nil {
		t.Error("unique record was deleted")
	}

	if len(result.Pairs) != 1 {
		t.Fatalf("got %d audit pairs, want 1", len(result.Pairs))
	}
	if result.Pairs[0].KeptID != highID || result.Pairs[0].DeletedID != lowID {
		t.Errorf("pair = kept %s deleted %s, want kept %s deleted %s",
			result.Pairs[0].KeptID, result.Pairs[0].DeletedID, highID, lowID)
	}
	if result.Pairs[0].Similarity != 90 {
		t.Errorf("similarity = %d, want 90", result.Pairs[0].Similarity)
	}
}

func TestPurgeDuplicatesTieBreaksOnRecency(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	older := &Record{
		ID:         "older",
		Owner:      "user-1",
		Topic:      "Genel",
		Content:    "DUP aynı anı",
		Importance: 5,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	newer := &Record{
		ID:         "newer",
		Owner:      "user-1",
		Topic:      "Genel",
		Content:    "DUP aynı anı tekrar",
		Importance: 5,
		CreatedAt:  time.Now().UTC(),
	}
	for _, rec := range []*Record{older, newer} {
		if err := backend.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.PurgeDuplicates(ctx, "user-1", &stubChecker{marker: "DUP"})
	if err != nil {
		t.Fatalf("PurgeDuplicates failed: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", result.Deleted)
	}
	if rec, _ := backend.Get(ctx, "user-1", "newer"); rec == nil {
		t.Error("newer record of an equal-importance pair was deleted")
	}
	if rec, _ := backend.Get(ctx, "user-1", "older"); rec != nil {
		t.Error("older record of an equal-importance pair survived")
	}
}

func TestPurgeDuplicatesNoPairs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"birinci anı", "ikinci anı", "üçüncü anı"} {
		if _, err := store.Create(ctx, "user-1", "Genel", content, "", 5, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	checker := &stubChecker{marker: "NOMATCH"}
	result, err := store.PurgeDuplicates(ctx, "user-1", checker)
	if err != nil {
		t.Fatalf("PurgeDuplicates failed: %v", err)
	}
	if result.Deleted != 0 {
		t.Errorf("deleted = %d, want 0", result.Deleted)
	}
	if result.Compared != 3 {
		t.Errorf("compared = %d pairs, want 3", result.Compared)
	}
	if checker.calls != 3 {
		t.Errorf("checker called %d times, want 3", checker.calls)
	}
}

func TestPurgeDuplicatesEmptySet(t *testing.T) {
	store, _ := newTestStore(t)

	checker := &stubChecker{marker: "DUP"}
	result, err := store.PurgeDuplicates(context.Background(), "user-1", checker)
	if err != nil {
		t.Fatalf("PurgeDuplicates failed: %v", err)
	}
	if result.Scanned != 0 || result.Compared != 0 || result.Deleted != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if checker.calls != 0 {
		t.Errorf("checker called %d times on empty set, want 0", checker.calls)
	}
}
