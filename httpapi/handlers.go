package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hatira-labs/hatira/analyzer"
	"github.com/hatira-labs/hatira/memory"
	"github.com/hatira-labs/hatira/pipeline"
)

type messageRequest struct {
	UserID          string   `json:"user_id"`
	Text            string   `json:"text"`
	PriorContext    string   `json:"prior_context"`
	ConversationRef string   `json:"conversation_ref"`
	Interests       []string `json:"interests"`
	MemoryEnabled   *bool    `json:"memory_enabled"`
	Verified        *bool    `json:"verified"`
}

type messageResponse struct {
	Action          string             `json:"action"`
	MemoryID        string             `json:"memory_id,omitempty"`
	Topic           string             `json:"topic,omitempty"`
	Importance      int                `json:"importance,omitempty"`
	Retagged        bool               `json:"retagged,omitempty"`
	SecondaryTopics []string           `json:"secondary_topics,omitempty"`
	UserNotice      string             `json:"user_notice,omitempty"`
	Analysis        *analyzer.Analysis `json:"analysis,omitempty"`
	Recent          []*memory.Record   `json:"recent,omitempty"`
	Important       []*memory.Record   `json:"important,omitempty"`
	Topics          []string           `json:"topics,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondCoded(w, err)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "user_id is required")
		return
	}

	preq := pipeline.Request{
		UserID:          req.UserID,
		Text:            req.Text,
		PriorContext:    req.PriorContext,
		ConversationRef: req.ConversationRef,
		Interests:       req.Interests,
		MemoryEnabled:   boolOr(req.MemoryEnabled, true),
		Verified:        boolOr(req.Verified, true),
	}

	start := time.Now()
	outcome := s.pipeline.ProcessMessage(r.Context(), preq)
	if s.metrics != nil {
		s.metrics.ObservePipeline(string(outcome.Action), time.Since(start))
		if outcome.Action == pipeline.ActionStored {
			s.metrics.StoredImportance.Observe(float64(outcome.Importance))
		}
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Action:          string(outcome.Action),
		MemoryID:        outcome.MemoryID,
		Topic:           outcome.Topic,
		Importance:      outcome.Importance,
		Retagged:        outcome.Retagged,
		SecondaryTopics: outcome.SecondaryTopics,
		UserNotice:      outcome.UserNotice,
		Analysis:        outcome.Analysis,
		Recent:          outcome.Recent,
		Important:       outcome.Important,
		Topics:          outcome.Topics,
	})
}

type contextResponse struct {
	Context   string   `json:"context"`
	MemoryIDs []string `json:"memory_ids,omitempty"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "user id is required")
		return
	}
	enabled := queryBool(r, "memory_enabled", true)
	verified := queryBool(r, "verified", true)

	block, ids := s.pipeline.ContextBlock(r.Context(), userID, enabled, verified)
	if s.metrics != nil {
		switch {
		case !enabled || !verified:
			s.metrics.ContextInjections.WithLabelValues("disabled").Inc()
		case len(ids) == 0:
			s.metrics.ContextInjections.WithLabelValues("empty").Inc()
		default:
			s.metrics.ContextInjections.WithLabelValues("memories").Inc()
		}
	}

	// Recall counts are not bumped here: the caller reports the IDs back
	// via the recalled endpoint once the completion actually used them.
	respondJSON(w, http.StatusOK, contextResponse{Context: block, MemoryIDs: ids})
}

type recalledRequest struct {
	MemoryIDs []string `json:"memory_ids"`
}

func (s *Server) handleMarkRecalled(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)

	var req recalledRequest
	if err := decodeJSON(r, &req); err != nil {
		respondCoded(w, err)
		return
	}
	if len(req.MemoryIDs) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "memory_ids is required")
		return
	}

	s.pipeline.MarkRecalled(r.Context(), userID, req.MemoryIDs)
	respondJSON(w, http.StatusOK, map[string]int{"marked": len(req.MemoryIDs)})
}

type listResponse struct {
	Memories []*memory.Record `json:"memories"`
	Count    int              `json:"count"`
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	limit := queryInt(r, "limit", 0)

	var (
		records []*memory.Record
		err     error
	)
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	switch {
	case topic != "":
		records, err = s.store.ListByTopic(r.Context(), userID, topic, limit)
	case r.URL.Query().Get("order") == "important":
		records, err = s.store.ListImportant(r.Context(), userID, limit)
	default:
		records, err = s.store.ListRecent(r.Context(), userID, limit)
	}
	if err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Memories: records, Count: len(records)})
}

type createMemoryRequest struct {
	Topic           string `json:"topic"`
	Content         string `json:"content"`
	ConversationRef string `json:"conversation_ref"`
	Importance      int    `json:"importance"`
	Reasoning       string `json:"reasoning"`
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)

	var req createMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondCoded(w, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "content is required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, req.Topic, req.Content, req.ConversationRef, req.Importance, req.Reasoning)
	if err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	memoryID := chi.URLParam(r, "memoryID")

	rec, err := s.store.GetByID(r.Context(), userID, memoryID)
	if err != nil {
		respondCoded(w, err)
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "memory not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	memoryID := chi.URLParam(r, "memoryID")

	if err := s.store.Delete(r.Context(), userID, memoryID); err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": memoryID})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "q is required")
		return
	}

	var (
		records []*memory.Record
		err     error
	)
	if r.URL.Query().Get("mode") == "keyword" {
		records, err = s.store.SearchKeyword(r.Context(), userID, query)
	} else {
		records, err = s.store.SearchSmart(r.Context(), userID, query)
	}
	if err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Memories: records, Count: len(records)})
}

type cleanupRequest struct {
	Threshold int `json:"threshold"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)

	var req cleanupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondCoded(w, err)
		return
	}
	if req.Threshold < 1 || req.Threshold > 10 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "threshold must be between 1 and 10")
		return
	}

	deleted, err := s.store.DeleteBelowImportance(r.Context(), userID, req.Threshold)
	if err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		respondError(w, http.StatusNotImplemented, "LLM_UNAVAILABLE", "duplicate purge requires a completion provider")
		return
	}
	userID := pathUserID(r)

	result, err := s.store.PurgeDuplicates(r.Context(), userID, s.checker)
	if err != nil {
		respondCoded(w, err)
		return
	}
	if s.metrics != nil && result.Deleted > 0 {
		s.metrics.PurgedDuplicates.Add(float64(result.Deleted))
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	interests := splitList(r.URL.Query().Get("interests"))

	stats, err := s.store.Stats(r.Context(), userID, interests, s.cfg.Memory.MaxTopics)
	if err != nil {
		respondCoded(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func queryBool(r *http.Request, key string, def bool) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
