// Package memory provides durable storage for user memory records: the
// facts the assistant is allowed to remember between conversations.
//
// The Backend interface is the document-store contract (keyed records,
// query-by-field, ordering). The Store adapter layers the domain rules on
// top: topic casing, encryption at rest, search heuristics, the duplicate
// sweep, and the context block injected into chat completions.
package memory

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Record is one durable fact extracted from conversation.
//
// Content is plaintext in memory and ciphertext at rest: the Store seals it
// before handing the record to a Backend and opens it on every read.
type Record struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	Topic           string    `json:"topic"`
	Content         string    `json:"content"`
	Importance      int       `json:"importance"` // 1-10, set at creation
	ConversationRef string    `json:"conversationRef"`
	Reasoning       string    `json:"reasoning,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	RecallCount     int       `json:"recallCount"`
	LastRecalled    time.Time `json:"lastRecalled,omitempty"`
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Order selects the sort field for listings.
type Order int

const (
	// OrderRecent sorts by CreatedAt descending.
	OrderRecent Order = iota

	// OrderImportance sorts by Importance descending, CreatedAt descending
	// within equal importance.
	OrderImportance
)

// Backend is the document-store contract for memory records. All content
// passes through unmodified; encryption is the Store's concern.
type Backend interface {
	// Insert stores a new record.
	Insert(ctx context.Context, rec *Record) error

	// Get returns a record by ID, or nil when it does not exist.
	Get(ctx context.Context, owner, id string) (*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, owner, id string) error

	// List returns the owner's records in the given order.
	// limit <= 0 returns all records.
	List(ctx context.Context, owner string, order Order, limit int) ([]*Record, error)

	// ListByTopic returns the owner's records with the given topic,
	// most recent first.
	ListByTopic(ctx context.Context, owner, topic string, limit int) ([]*Record, error)

	// MarkRecalled increments RecallCount and stamps LastRecalled.
	MarkRecalled(ctx context.Context, owner, id string, at time.Time) error

	// Close releases backend resources.
	Close() error
}

// Stats summarizes a user's memory set for the management surface.
type Stats struct {
	Count          int      `json:"count"`
	DistinctTopics int      `json:"distinctTopics"`
	TopicHeadroom  int      `json:"topicHeadroom"`
	Topics         []string `json:"topics"`
}

// TitleTopic capitalizes the first letter of a topic using the locale's
// casing rules. Turkish has dotted and dotless I: lowercase i maps to İ and
// lowercase ı maps to I.
func TitleTopic(topic, locale string) string {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return trimmed
	}
	runes := []rune(trimmed)
	if locale == "tr" {
		switch runes[0] {
		case 'i':
			runes[0] = 'İ'
		case 'ı':
			runes[0] = 'I'
		default:
			runes[0] = unicode.ToUpper(runes[0])
		}
	} else {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// TopicSet derives a user's distinct topic set: the profile interests plus
// the distinct topics across the given records, in first-seen order.
func TopicSet(interests []string, records []*Record) []string {
	seen := make(map[string]struct{})
	var topics []string
	add := func(topic string) {
		t := strings.TrimSpace(topic)
		if t == "" {
			return
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		topics = append(topics, t)
	}
	for _, t := range interests {
		add(t)
	}
	for _, r := range records {
		add(r.Topic)
	}
	return topics
}

// ContainsTopic reports whether the topic set already holds the topic,
// case-insensitively.
func ContainsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}
