// Package handler exposes registry verification over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agrocert/internal/registry"
	"agrocert/internal/transport/http/shared"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Client defines the registry operations the handler delegates to.
type Client interface {
	Verify(ctx context.Context, ggn id.GGN) (*registry.CertificateInfo, error)
	GetStatus(ctx context.Context, ggn id.GGN) (registry.CertStatus, error)
	SearchProducers(ctx context.Context, query string, filters registry.SearchFilters) ([]registry.Producer, error)
	BatchVerify(ctx context.Context, ggns []id.GGN, concurrency int) map[id.GGN]registry.BatchResult
}

type Handler struct {
	client           Client
	batchConcurrency int
	logger           *slog.Logger
}

func New(client Client, batchConcurrency int, logger *slog.Logger) *Handler {
	return &Handler{client: client, batchConcurrency: batchConcurrency, logger: logger}
}

// Register mounts the registry routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registry/certificates/{ggn}", h.handleVerify)
	r.Get("/registry/certificates/{ggn}/status", h.handleStatus)
	r.Get("/registry/producers", h.handleSearch)
	r.Post("/registry/certificates/batch-verify", h.handleBatchVerify)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	info, err := h.client.Verify(r.Context(), id.GGN(chi.URLParam(r, "ggn")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.client.GetStatus(r.Context(), id.GGN(chi.URLParam(r, "ggn")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer").WithField("limit"))
			return
		}
		limit = parsed
	}
	producers, err := h.client.SearchProducers(r.Context(), q.Get("q"), registry.SearchFilters{
		Country:  q.Get("country"),
		Category: q.Get("category"),
		Limit:    limit,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"producers": producers})
}

type batchVerifyRequest struct {
	GGNs []string `json:"ggns"`
}

type batchItemResponse struct {
	Certificate *registry.CertificateInfo `json:"certificate,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Message     string                    `json:"message,omitempty"`
}

func (h *Handler) handleBatchVerify(w http.ResponseWriter, r *http.Request) {
	var req batchVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.GGNs) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "ggns must not be empty").WithField("ggns"))
		return
	}

	ggns := make([]id.GGN, 0, len(req.GGNs))
	for _, raw := range req.GGNs {
		ggns = append(ggns, id.GGN(raw))
	}

	results := h.client.BatchVerify(r.Context(), ggns, h.batchConcurrency)
	out := make(map[string]batchItemResponse, len(results))
	for ggn, result := range results {
		item := batchItemResponse{Certificate: result.Info}
		if result.Err != nil {
			item.Error = string(dErrors.CodeOf(result.Err))
			item.Message = result.Err.Error()
		}
		out[ggn.String()] = item
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}
