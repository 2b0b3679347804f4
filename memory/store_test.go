package memory

import (
	"context"
	"io"
	"testing"

	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/security"
)

func newTestStore(t *testing.T) (*Store, *InMemoryBackend) {
	t.Helper()

	box, err := security.NewBox("test-secret")
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	log := logging.New()
	log.SetOutput(io.Discard)
	backend := NewInMemoryBackend()
	store := NewStore(backend, box, log, StoreConfig{})
	return store, backend
}

func TestCreateAndGet(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "iş stresi", "Kullanıcı işinde yoğun stres yaşıyor", "conv-1", 7, "recurring theme")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty ID")
	}

	rec, err := store.GetByID(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec.Content != "Kullanıcı işinde yoğun stres yaşıyor" {
		t.Errorf("content = %q, want decrypted plaintext", rec.Content)
	}
	if rec.Topic != "İş stresi" {
		t.Errorf("topic = %q, want %q (Turkish dotted capital)", rec.Topic, "İş stresi")
	}
	if rec.Importance != 7 {
		t.Errorf("importance = %d, want 7", rec.Importance)
	}

	// Content at rest must be ciphertext, not the plaintext.
	raw, err := backend.Get(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("backend Get failed: %v", err)
	}
	if raw.Content == rec.Content {
		t.Error("backend holds plaintext content, expected ciphertext")
	}
}

func TestCreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		owner      string
		content    string
		importance int
	}{
		{"empty owner", "", "content", 5},
		{"empty content", "user-1", "", 5},
		{"importance too low", "user-1", "content", 0},
		{"importance too high", "user-1", "content", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.owner, "topic", tt.content, "", tt.importance, "")
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestGetByIDMissing(t *testing.T) {
	store, _ := newTestStore(t)

	rec, err := store.GetByID(context.Background(), "user-1", "no-such-id")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for missing record, got %+v", rec)
	}
}

func TestListOrdering(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		content    string
		importance int
	}{
		{"first memory", 3},
		{"second memory", 9},
		{"third memory", 6},
	}
	for _, s := range seed {
		if _, err := store.Create(ctx, "user-1", "Genel", s.content, "", s.importance, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	important, err := store.ListImportant(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("ListImportant failed: %v", err)
	}
	if len(important) != 3 {
		t.Fatalf("got %d records, want 3", len(important))
	}
	if important[0].Importance != 9 || important[1].Importance != 6 || important[2].Importance != 3 {
		t.Errorf("importance order = %d,%d,%d, want 9,6,3",
			important[0].Importance, important[1].Importance, important[2].Importance)
	}

	recent, err := store.ListRecent(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("got %d records, want limit of 2", len(recent))
	}
}

func TestListByTopicCasing(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-1", "ilaç takibi", "İlacını düzenli alıyor", "", 6, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Lookup with the lowercase form must hit the title-cased topic.
	recs, err := store.ListByTopic(ctx, "user-1", "ilaç takibi", 0)
	if err != nil {
		t.Fatalf("ListByTopic failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Topic != "İlaç takibi" {
		t.Errorf("topic = %q, want %q", recs[0].Topic, "İlaç takibi")
	}
}

func TestIncrementRecall(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "Genel", "recall me", "", 5, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Plain reads must not bump the counter.
	if _, err := store.ListRecent(ctx, "user-1", 0); err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	rec, _ := store.GetByID(ctx, "user-1", id)
	if rec.RecallCount != 0 {
		t.Errorf("recall count after reads = %d, want 0", rec.RecallCount)
	}

	if err := store.IncrementRecall(ctx, "user-1", id); err != nil {
		t.Fatalf("IncrementRecall failed: %v", err)
	}
	rec, _ = store.GetByID(ctx, "user-1", id)
	if rec.RecallCount != 1 {
		t.Errorf("recall count = %d, want 1", rec.RecallCount)
	}
	if rec.LastRecalled.IsZero() {
		t.Error("LastRecalled not stamped")
	}
}

func TestDeleteBelowImportance(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, imp := range []int{2, 4, 5, 8} {
		if _, err := store.Create(ctx, "user-1", "Genel", "memory", "", imp, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	deleted, err := store.DeleteBelowImportance(ctx, "user-1", 5)
	if err != nil {
		t.Fatalf("DeleteBelowImportance failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	remaining, err := store.ListImportant(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("ListImportant failed: %v", err)
	}
	for _, rec := range remaining {
		if rec.Importance < 5 {
			t.Errorf("record with importance %d survived threshold 5", rec.Importance)
		}
	}
}

func TestOwnerIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "Genel", "private", "", 5, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec, err := store.GetByID(ctx, "user-2", id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec != nil {
		t.Error("record visible to a different owner")
	}

	recs, err := store.ListRecent(ctx, "user-2", 0)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("other owner sees %d records, want 0", len(recs))
	}
}

func TestDecryptPassthrough(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	// A legacy record stored before encryption was introduced.
	legacy := &Record{
		ID:         "legacy-1",
		Owner:      "user-1",
		Topic:      "Genel",
		Content:    "plaintext legacy content",
		Importance: 5,
	}
	if err := backend.Insert(ctx, legacy); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rec, err := store.GetByID(ctx, "user-1", "legacy-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec.Content != "plaintext legacy content" {
		t.Errorf("content = %q, want passthrough of stored value", rec.Content)
	}
}

func TestStatsAndTopics(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-1", "iş", "work stress", "", 6, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "user-1", "Aile", "family matter", "", 7, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// "iş" as a profile interest must dedupe against the stored "İş" topic.
	stats, err := store.Stats(ctx, "user-1", []string{"İş", "Spor"}, 20)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Count != 2 {
		t.Errorf("count = %d, want 2", stats.Count)
	}
	if stats.DistinctTopics != 3 {
		t.Errorf("distinct topics = %d, want 3 (İş, Spor, Aile)", stats.DistinctTopics)
	}
	if stats.TopicHeadroom != 17 {
		t.Errorf("headroom = %d, want 17", stats.TopicHeadroom)
	}
}

func TestTitleTopic(t *testing.T) {
	tests := []struct {
		topic  string
		locale string
		want   string
	}{
		{"iş stresi", "tr", "İş stresi"},
		{"ısınma", "tr", "Isınma"},
		{"aile", "tr", "Aile"},
		{"iş stresi", "en", "Iş stresi"},
		{"  aile ", "tr", "Aile"},
		{"", "tr", ""},
	}

	for _, tt := range tests {
		if got := TitleTopic(tt.topic, tt.locale); got != tt.want {
			t.Errorf("TitleTopic(%q, %q) = %q, want %q", tt.topic, tt.locale, got, tt.want)
		}
	}
}
