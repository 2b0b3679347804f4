// Package httpapi exposes the memory subsystem over HTTP: message
// ingestion into the pipeline, context-block retrieval for prompt
// assembly, and the management surface (listings, search, cleanup,
// duplicate purge, stats).
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hatira-labs/hatira/config"
	"github.com/hatira-labs/hatira/errors"
	"github.com/hatira-labs/hatira/logging"
	"github.com/hatira-labs/hatira/memory"
	"github.com/hatira-labs/hatira/observability"
	"github.com/hatira-labs/hatira/pipeline"
)

// Server routes HTTP requests to the pipeline and store.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	store    *memory.Store
	checker  memory.DuplicateChecker
	metrics  *observability.Metrics
	log      *logging.Logger
}

// New creates the HTTP surface. The checker drives the duplicate purge
// and may be nil when no provider is configured; purge then returns 501.
// Metrics may be nil.
func New(cfg *config.Config, p *pipeline.Pipeline, store *memory.Store, checker memory.DuplicateChecker, metrics *observability.Metrics, log *logging.Logger) *Server {
	if log == nil {
		log = logging.New()
	}
	return &Server{
		cfg:      cfg,
		pipeline: p,
		store:    store,
		checker:  checker,
		metrics:  metrics,
		log:      log.WithComponent("httpapi"),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/messages", s.handleMessage)

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Get("/context", s.handleContext)
		r.Get("/stats", s.handleStats)

		r.Route("/memories", func(r chi.Router) {
			r.Get("/", s.handleListMemories)
			r.Post("/", s.handleCreateMemory)
			r.Get("/search", s.handleSearch)
			r.Post("/recalled", s.handleMarkRecalled)
			r.Post("/cleanup", s.handleCleanup)
			r.Post("/purge", s.handlePurge)
			r.Get("/{memoryID}", s.handleGetMemory)
			r.Delete("/{memoryID}", s.handleDeleteMemory)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.cfg.Storage.Backend,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.InvalidInput("request body is required")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.InvalidInput("malformed JSON body", errors.WithCause(err))
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondCoded maps a coded error onto an HTTP status. Unknown errors
// become a plain 500 without leaking internals.
func respondCoded(w http.ResponseWriter, err error) {
	coded := errors.AsCodedError(err)
	if coded == nil {
		respondError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal error")
		return
	}
	respondError(w, statusFor(coded.Code()), string(coded.Code()), coded.Error())
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeMalformedOutput:
		return http.StatusBadRequest
	case errors.ErrCodeUnverified:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeMemoryDisabled:
		return http.StatusForbidden
	case errors.ErrCodeRateLimit, errors.ErrCodeTopicLimit:
		return http.StatusTooManyRequests
	case errors.ErrCodeLLMTimeout, errors.ErrCodeLLMUnavailable,
		errors.ErrCodeStoreUnavailable, errors.ErrCodeNetworkErr:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func pathUserID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "userID"))
}
