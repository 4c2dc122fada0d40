// Package handler exposes non-conformity tracking over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agrocert/internal/nonconformity"
	"agrocert/internal/transport/http/shared"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Service defines the non-conformity operations the handler delegates to.
type Service interface {
	Resolve(ctx context.Context, ncID id.NonConformityID, notes string) (*nonconformity.NonConformity, error)
	ListOpen(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*nonconformity.NonConformity, error)
	ListBySeverity(ctx context.Context, tenantID id.TenantID, farmID id.FarmID, severity nonconformity.Severity) ([]*nonconformity.NonConformity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the non-conformity routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}/farms/{farmID}/nonconformities", h.handleList)
	r.Post("/nonconformities/{ncID}/resolve", h.handleResolve)
}

type nonConformityResponse struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenantId"`
	FarmID           string     `json:"farmId"`
	ControlPointID   string     `json:"controlPointId"`
	Severity         string     `json:"severity"`
	Description      string     `json:"description"`
	CorrectiveAction string     `json:"correctiveAction,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	Resolved         bool       `json:"resolved"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	ResolutionNotes  string     `json:"resolutionNotes,omitempty"`
	DetectedAt       time.Time  `json:"detectedAt"`
	Overdue          bool       `json:"overdue"`
}

func toResponse(nc *nonconformity.NonConformity, now time.Time) nonConformityResponse {
	return nonConformityResponse{
		ID:               nc.ID.String(),
		TenantID:         nc.TenantID.String(),
		FarmID:           nc.FarmID.String(),
		ControlPointID:   nc.ControlPointID,
		Severity:         string(nc.Severity),
		Description:      nc.Description,
		CorrectiveAction: nc.CorrectiveAction,
		Deadline:         nc.Deadline,
		Resolved:         nc.Resolved,
		ResolvedAt:       nc.ResolvedAt,
		ResolutionNotes:  nc.ResolutionNotes,
		DetectedAt:       nc.DetectedAt,
		Overdue:          nc.Overdue(now),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	farmID, err := id.ParseFarmID(chi.URLParam(r, "farmID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var items []*nonconformity.NonConformity
	if raw := r.URL.Query().Get("severity"); raw != "" {
		severity, err := nonconformity.ParseSeverity(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		items, err = h.service.ListBySeverity(r.Context(), tenantID, farmID, severity)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	} else {
		items, err = h.service.ListOpen(r.Context(), tenantID, farmID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	now := time.Now()
	out := make([]nonConformityResponse, 0, len(items))
	for _, nc := range items {
		out = append(out, toResponse(nc, now))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"nonConformities": out})
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ncID, err := id.ParseNonConformityID(chi.URLParam(r, "ncID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	nc, err := h.service.Resolve(r.Context(), ncID, req.Notes)
	if err != nil {
		h.logger.WarnContext(r.Context(), "resolve non-conformity failed",
			"non_conformity_id", ncID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(nc, time.Now()))
}
