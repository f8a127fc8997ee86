package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
)

// ServiceName is reported by the banner route.
const ServiceName = "Sage's Oracle API"

const notReadyMessage = "RAG Engine not initialized. Run 'sage build' first."

// maxBodyBytes bounds a request body.
const maxBodyBytes = 1 << 20

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question    string   `json:"question" validate:"required"`
	TopK        *int     `json:"top_k,omitempty" validate:"omitempty,gte=1"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// options applies defaults to unset fields.
func (r AskRequest) options() domain.AskOptions {
	opts := domain.DefaultAskOptions()
	if r.TopK != nil {
		opts.TopK = *r.TopK
	}
	if r.Temperature != nil {
		opts.Temperature = *r.Temperature
	}
	return opts
}

// BannerResponse is the body of GET /.
type BannerResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	ChunksLoaded   *int   `json:"chunks_loaded,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
}

// SourcesResponse is the body of GET /sources/{doc_type}.
type SourcesResponse struct {
	Type    string            `json:"type"`
	Count   int               `json:"count"`
	Sources []domain.Metadata `json:"sources"`
}

// Handler serves the HTTP routes.
type Handler struct {
	engine  driving.AskService
	logger  *zap.Logger
	version string
}

// NewHandler creates a handler set.
func NewHandler(engine driving.AskService, logger *zap.Logger, version string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger, version: version}
}

// HandleRoot handles GET /.
func (h *Handler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, BannerResponse{
		Status:  "online",
		Service: ServiceName,
		Version: h.version,
	})
}

// HandleHealth handles GET /health. Not ready is still a 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	status := h.engine.Status()
	if !status.Ready {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:  "not_ready",
			Message: notReadyMessage,
		})
		return
	}

	chunks := status.ChunksLoaded
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ready",
		ChunksLoaded:   &chunks,
		EmbeddingModel: status.EmbeddingModel,
		LLMModel:       status.LLMModel,
	})
}

// HandleAsk handles POST /ask.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Status().Ready {
		handleServiceError(w, r, domain.ErrEngineNotReady, h.logger)
		return
	}

	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID(r)),
			zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	h.logger.Debug("ask",
		zap.String("request_id", requestID(r)),
		zap.String("question", req.Question))

	answer, err := h.engine.Ask(r.Context(), req.Question, req.options())
	if err != nil {
		handleServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// HandleSources handles GET /sources/{doc_type}.
func (h *Handler) HandleSources(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "doc_type")

	sources, err := h.engine.Sources(r.Context(), docType)
	if err != nil {
		handleServiceError(w, r, err, h.logger)
		return
	}
	if sources == nil {
		sources = []domain.Metadata{}
	}
	writeJSON(w, http.StatusOK, SourcesResponse{
		Type:    docType,
		Count:   len(sources),
		Sources: sources,
	})
}
