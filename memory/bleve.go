package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// BleveBackend persists records in a local Bleve index. Content arrives
// already encrypted and is stored as an opaque keyword field; only owner,
// topic and timestamps are queryable.
type BleveBackend struct {
	index bleve.Index
	path  string
}

// bleveDocument is the indexed shape of a Record.
type bleveDocument struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	Topic           string    `json:"topic"`
	Content         string    `json:"content"`
	Importance      float64   `json:"importance"`
	ConversationRef string    `json:"conversation_ref"`
	Reasoning       string    `json:"reasoning"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	RecallCount     float64   `json:"recall_count"`
	LastRecalled    time.Time `json:"last_recalled"`
}

// NewBleveBackend opens or creates a Bleve index at path.
func NewBleveBackend(path string) (*BleveBackend, error) {
	var index bleve.Index
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		index, err = bleve.New(path, buildRecordMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create bleve index: %w", err)
		}
	} else {
		index, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open bleve index: %w", err)
		}
	}

	return &BleveBackend{index: index, path: path}, nil
}

// buildRecordMapping creates the Bleve index mapping for records.
func buildRecordMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	dateFieldMapping := bleve.NewDateTimeFieldMapping()
	numericFieldMapping := bleve.NewNumericFieldMapping()

	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("owner", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("topic", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("content", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("conversation_ref", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("reasoning", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("importance", numericFieldMapping)
	docMapping.AddFieldMappingsAt("recall_count", numericFieldMapping)
	docMapping.AddFieldMappingsAt("created_at", dateFieldMapping)
	docMapping.AddFieldMappingsAt("updated_at", dateFieldMapping)
	docMapping.AddFieldMappingsAt("last_recalled", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Insert indexes a new record.
func (b *BleveBackend) Insert(ctx context.Context, rec *Record) error {
	if err := b.index.Index(rec.ID, toDocument(rec)); err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	return nil
}

// Get returns a record by ID, or nil when absent or owned by someone else.
func (b *BleveBackend) Get(ctx context.Context, owner, id string) (*Record, error) {
	docIDQuery := bleve.NewDocIDQuery([]string{id})
	searchReq := bleve.NewSearchRequest(docIDQuery)
	searchReq.Fields = []string{"*"}
	searchReq.Size = 1

	results, err := b.index.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	if results.Total == 0 {
		return nil, nil
	}

	rec := fromHit(results.Hits[0])
	if rec.Owner != owner {
		return nil, nil
	}
	return rec, nil
}

// Delete removes a record from the index.
func (b *BleveBackend) Delete(ctx context.Context, owner, id string) error {
	rec, err := b.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return b.index.Delete(id)
}

// List returns the owner's records in the given order.
func (b *BleveBackend) List(ctx context.Context, owner string, order Order, limit int) ([]*Record, error) {
	ownerQuery := bleve.NewTermQuery(owner)
	ownerQuery.SetField("owner")

	searchReq := bleve.NewSearchRequest(ownerQuery)
	searchReq.Fields = []string{"*"}
	searchReq.Size = searchSize(limit)
	switch order {
	case OrderImportance:
		searchReq.SortBy([]string{"-importance", "-created_at"})
	default:
		searchReq.SortBy([]string{"-created_at"})
	}

	results, err := b.index.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	recs := make([]*Record, 0, len(results.Hits))
	for _, hit := range results.Hits {
		recs = append(recs, fromHit(hit))
	}
	return recs, nil
}

// ListByTopic returns the owner's records under a topic, most recent first.
func (b *BleveBackend) ListByTopic(ctx context.Context, owner, topic string, limit int) ([]*Record, error) {
	ownerQuery := bleve.NewTermQuery(owner)
	ownerQuery.SetField("owner")
	topicQuery := bleve.NewTermQuery(topic)
	topicQuery.SetField("topic")

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(ownerQuery)
	boolQuery.AddMust(topicQuery)

	searchReq := bleve.NewSearchRequest(boolQuery)
	searchReq.Fields = []string{"*"}
	searchReq.Size = searchSize(limit)
	searchReq.SortBy([]string{"-created_at"})

	results, err := b.index.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	recs := make([]*Record, 0, len(results.Hits))
	for _, hit := range results.Hits {
		recs = append(recs, fromHit(hit))
	}
	return recs, nil
}

// MarkRecalled reindexes the record with an incremented recall count.
func (b *BleveBackend) MarkRecalled(ctx context.Context, owner, id string, at time.Time) error {
	rec, err := b.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rec.RecallCount++
	rec.LastRecalled = at
	rec.UpdatedAt = at
	return b.index.Index(id, toDocument(rec))
}

// Close closes the underlying index.
func (b *BleveBackend) Close() error {
	return b.index.Close()
}

// searchSize maps a list limit onto a bleve request size.
func searchSize(limit int) int {
	if limit > 0 {
		return limit
	}
	return 10000
}

func toDocument(rec *Record) bleveDocument {
	return bleveDocument{
		ID:              rec.ID,
		Owner:           rec.Owner,
		Topic:           rec.Topic,
		Content:         rec.Content,
		Importance:      float64(rec.Importance),
		ConversationRef: rec.ConversationRef,
		Reasoning:       rec.Reasoning,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		RecallCount:     float64(rec.RecallCount),
		LastRecalled:    rec.LastRecalled,
	}
}

func fromHit(hit *search.DocumentMatch) *Record {
	rec := &Record{ID: hit.ID}

	if v, ok := hit.Fields["owner"].(string); ok {
		rec.Owner = v
	}
	if v, ok := hit.Fields["topic"].(string); ok {
		rec.Topic = v
	}
	if v, ok := hit.Fields["content"].(string); ok {
		rec.Content = v
	}
	if v, ok := hit.Fields["conversation_ref"].(string); ok {
		rec.ConversationRef = v
	}
	if v, ok := hit.Fields["reasoning"].(string); ok {
		rec.Reasoning = v
	}
	if v, ok := hit.Fields["importance"].(float64); ok {
		rec.Importance = int(v)
	}
	if v, ok := hit.Fields["recall_count"].(float64); ok {
		rec.RecallCount = int(v)
	}
	if v, ok := hit.Fields["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.CreatedAt = t
		}
	}
	if v, ok := hit.Fields["updated_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.UpdatedAt = t
		}
	}
	if v, ok := hit.Fields["last_recalled"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.LastRecalled = t
		}
	}
	return rec
}
