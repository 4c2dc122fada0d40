// Package handler exposes the compliance engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agrocert/internal/compliance"
	"agrocert/internal/platform/middleware"
	"agrocert/internal/transport/http/shared"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Service defines the compliance operations the handler delegates to.
type Service interface {
	Calculate(ctx context.Context, tenantID id.TenantID, farmID id.FarmID, assessments []compliance.Assessment) (*compliance.ComplianceRecord, error)
	CurrentRecord(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*compliance.ComplianceRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the compliance routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants/{tenantID}/farms/{farmID}/compliance", h.handleCalculate)
	r.Get("/tenants/{tenantID}/farms/{farmID}/compliance", h.handleCurrent)
}

type assessmentRequest struct {
	ControlPointID string    `json:"controlPointId"`
	Status         string    `json:"status"`
	Evidence       []string  `json:"evidence,omitempty"`
	Assessor       string    `json:"assessor"`
	AssessedAt     time.Time `json:"assessedAt"`
}

type calculateRequest struct {
	Assessments []assessmentRequest `json:"assessments"`
}

type recordResponse struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenantId"`
	FarmID               string    `json:"farmId"`
	OverallStatus        string    `json:"overallStatus"`
	CompliancePercentage float64   `json:"compliancePercentage"`
	TotalPoints          int       `json:"totalPoints"`
	CompliantPoints      int       `json:"compliantPoints"`
	NonCompliantPoints   int       `json:"nonCompliantPoints"`
	NotApplicablePoints  int       `json:"notApplicablePoints"`
	NotAssessedPoints    int       `json:"notAssessedPoints"`
	MajorMustFails       int       `json:"majorMustFails"`
	MinorMustFails       int       `json:"minorMustFails"`
	AssessmentDate       time.Time `json:"assessmentDate"`
	Version              int64     `json:"version"`
}

func toRecordResponse(record *compliance.ComplianceRecord) recordResponse {
	return recordResponse{
		ID:                   record.ID.String(),
		TenantID:             record.TenantID.String(),
		FarmID:               record.FarmID.String(),
		OverallStatus:        string(record.OverallStatus),
		CompliancePercentage: record.CompliancePercentage,
		TotalPoints:          record.TotalPoints,
		CompliantPoints:      record.CompliantPoints,
		NonCompliantPoints:   record.NonCompliantPoints,
		NotApplicablePoints:  record.NotApplicablePoints,
		NotAssessedPoints:    record.NotAssessedPoints,
		MajorMustFails:       record.MajorMustFails,
		MinorMustFails:       record.MinorMustFails,
		AssessmentDate:       record.AssessmentDate,
		Version:              record.Version,
	}
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, farmID, err := pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	assessments := make([]compliance.Assessment, 0, len(req.Assessments))
	for _, a := range req.Assessments {
		status, err := compliance.ParseAssessmentStatus(a.Status)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		assessments = append(assessments, compliance.Assessment{
			TenantID:       tenantID,
			FarmID:         farmID,
			ControlPointID: a.ControlPointID,
			Status:         status,
			Evidence:       a.Evidence,
			Assessor:       a.Assessor,
			AssessedAt:     a.AssessedAt,
		})
	}

	record, err := h.service.Calculate(ctx, tenantID, farmID, assessments)
	if err != nil {
		h.logger.WarnContext(ctx, "compliance calculation rejected",
			"request_id", middleware.GetRequestID(ctx),
			"tenant_id", tenantID.String(),
			"farm_id", farmID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	tenantID, farmID, err := pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.service.CurrentRecord(r.Context(), tenantID, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func pathIDs(r *http.Request) (id.TenantID, id.FarmID, error) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		return id.TenantID{}, id.FarmID{}, err
	}
	farmID, err := id.ParseFarmID(chi.URLParam(r, "farmID"))
	if err != nil {
		return id.TenantID{}, id.FarmID{}, err
	}
	return tenantID, farmID, nil
}
