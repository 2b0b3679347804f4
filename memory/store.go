package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hatira-labs/hatira/errors"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/security"
)

// defaultPageSize bounds search results.
const defaultPageSize = 5

// StoreConfig configures the Store adapter.
type StoreConfig struct {
	// Locale steers topic casing ("tr" or "en"). Default "tr".
	Locale string

	// PageSize bounds search results. Default 5.
	PageSize int
}

// Store layers domain rules over a Backend: encryption at rest, topic
// casing, recency/importance reads, search, and the duplicate sweep.
type Store struct {
	backend  Backend
	box      *security.Box
	log      *logging.Logger
	locale   string
	pageSize int
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend, box *security.Box, log *logging.Logger, cfg StoreConfig) *Store {
	locale := cfg.Locale
	if locale == "" {
		locale = "tr"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if log == nil {
		log = logging.New()
	}
	return &Store{
		backend:  backend,
		box:      box,
		log:      log.WithComponent("memory"),
		locale:   locale,
		pageSize: pageSize,
	}
}

// Create stores a new memory record and returns its ID. Content is sealed
// before it reaches the backend.
func (s *Store) Create(ctx context.Context, owner, topic, content, conversationRef string, importance int, reasoning string) (string, error) {
	if owner == "" {
		return "", errors.InvalidInput("owner is required")
	}
	if content == "" {
		return "", errors.InvalidInput("content is required")
	}
	if importance < 1 || importance > 10 {
		return "", errors.Newf(errors.ErrCodeInvalidInput, "importance %d outside [1,10]", importance)
	}

	sealed, err := s.box.Seal(content)
	if err != nil {
		return "", errors.Wrap(err, "sealing memory content")
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:              uuid.New().String(),
		Owner:           owner,
		Topic:           TitleTopic(topic, s.locale),
		Content:         sealed,
		Importance:      importance,
		ConversationRef: conversationRef,
		Reasoning:       reasoning,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.backend.Insert(ctx, rec); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "inserting memory record")
	}
	return rec.ID, nil
}

// GetByID returns a record with decrypted content, or nil when absent.
func (s *Store) GetByID(ctx context.Context, owner, id string) (*Record, error) {
	rec, err := s.backend.Get(ctx, owner, id)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "fetching memory record")
	}
	if rec == nil {
		return nil, nil
	}
	return s.open(rec), nil
}

// ListRecent returns the owner's records ordered by creation time
// descending, content decrypted.
func (s *Store) ListRecent(ctx context.Context, owner string, limit int) ([]*Record, error) {
	return s.list(ctx, owner, OrderRecent, limit)
}

// ListImportant returns the owner's records ordered by importance
// descending, content decrypted.
func (s *Store) ListImportant(ctx context.Context, owner string, limit int) ([]*Record, error) {
	return s.list(ctx, owner, OrderImportance, limit)
}

// ListByTopic returns the owner's records under a topic, most recent first.
func (s *Store) ListByTopic(ctx context.Context, owner, topic string, limit int) ([]*Record, error) {
	recs, err := s.backend.ListByTopic(ctx, owner, TitleTopic(topic, s.locale), limit)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "listing memories by topic")
	}
	return s.openAll(recs), nil
}

// IncrementRecall records that a memory was surfaced in a completion
// context. Listing and search reads never touch the counter.
func (s *Store) IncrementRecall(ctx context.Context, owner, id string) error {
	if err := s.backend.MarkRecalled(ctx, owner, id, time.Now().UTC()); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "marking recall")
	}
	return nil
}

// Delete removes a single record.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	if err := s.backend.Delete(ctx, owner, id); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "deleting memory record")
	}
	s.log.WithUser(owner).MemoryDeleted(id)
	return nil
}

// DeleteBelowImportance removes every record with importance strictly below
// the threshold and returns the number deleted.
func (s *Store) DeleteBelowImportance(ctx context.Context, owner string, threshold int) (int, error) {
	recs, err := s.backend.List(ctx, owner, OrderImportance, 0)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "listing memories for cleanup")
	}

	deleted := 0
	for _, rec := range recs {
		if rec.Importance >= threshold {
			continue
		}
		if err := s.backend.Delete(ctx, owner, rec.ID); err != nil {
			return deleted, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "deleting low-importance record")
		}
		deleted++
	}
	return deleted, nil
}

// Topics returns the user's derived topic set: profile interests plus the
// distinct topics across stored records.
func (s *Store) Topics(ctx context.Context, owner string, interests []string) ([]string, error) {
	recs, err := s.backend.List(ctx, owner, OrderRecent, 0)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "listing memories for topics")
	}
	return TopicSet(interests, recs), nil
}

// Stats summarizes the user's memory set.
func (s *Store) Stats(ctx context.Context, owner string, interests []string, maxTopics int) (*Stats, error) {
	recs, err := s.backend.List(ctx, owner, OrderRecent, 0)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "listing memories for stats")
	}
	topics := TopicSet(interests, recs)
	headroom := maxTopics - len(topics)
	if headroom < 0 {
		headroom = 0
	}
	return &Stats{
		Count:          len(recs),
		DistinctTopics: len(topics),
		TopicHeadroom:  headroom,
		Topics:         topics,
	}, nil
}

// Locale returns the store's configured locale.
func (s *Store) Locale() string {
	return s.locale
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) list(ctx context.Context, owner string, order Order, limit int) ([]*Record, error) {
	recs, err := s.backend.List(ctx, owner, order, limit)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStoreUnavailable, "listing memories")
	}
	return s.openAll(recs), nil
}

// open returns a copy of the record with content decrypted. A failed
// decrypt passes the stored value through rather than failing the read.
func (s *Store) open(rec *Record) *Record {
	c := rec.Clone()
	plaintext, err := s.box.Open(c.Content)
	if err != nil {
		s.log.WithUser(c.Owner).DecryptPassthrough(c.ID)
	}
	c.Content = plaintext
	return c
}

func (s *Store) openAll(recs []*Record) []*Record {
	out := make([]*Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.open(rec))
	}
	return out
}
