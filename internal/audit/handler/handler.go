// Package handler exposes the audit engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agrocert/internal/audit"
	"agrocert/internal/compliance"
	"agrocert/internal/nonconformity"
	"agrocert/internal/platform/middleware"
	"agrocert/internal/transport/http/shared"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Engine defines the audit operations the handler delegates to.
type Engine interface {
	PrepareReport(ctx context.Context, record *compliance.ComplianceRecord, nonConformities []*nonconformity.NonConformity, auditType audit.Type, auditorName string) (*audit.Result, error)
	CertificationRecommendation(result *audit.Result, record *compliance.ComplianceRecord) audit.CertificationRecommendation
	GetByID(ctx context.Context, resultID id.AuditResultID) (*audit.Result, error)
	ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*audit.Result, error)
}

// ComplianceReader supplies the compliance snapshot an audit runs against.
type ComplianceReader interface {
	CurrentRecord(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*compliance.ComplianceRecord, error)
}

// NonConformityReader supplies the open findings for the audited farm.
type NonConformityReader interface {
	ListOpen(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*nonconformity.NonConformity, error)
}

type Handler struct {
	engine          Engine
	complianceRead  ComplianceReader
	nonConformities NonConformityReader
	logger          *slog.Logger
}

func New(engine Engine, complianceRead ComplianceReader, nonConformities NonConformityReader, logger *slog.Logger) *Handler {
	return &Handler{
		engine:          engine,
		complianceRead:  complianceRead,
		nonConformities: nonConformities,
		logger:          logger,
	}
}

// Register mounts the audit routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants/{tenantID}/farms/{farmID}/audits", h.handleRunAudit)
	r.Get("/tenants/{tenantID}/farms/{farmID}/audits", h.handleListByFarm)
	r.Get("/audits/{auditID}", h.handleGetByID)
}

type runAuditRequest struct {
	AuditType string `json:"auditType"`
	Auditor   string `json:"auditor"`
}

type recommendationResponse struct {
	Priority int               `json:"priority"`
	Code     string            `json:"code"`
	Messages map[string]string `json:"messages"`
}

type resultResponse struct {
	ID                 string                   `json:"id"`
	TenantID           string                   `json:"tenantId"`
	FarmID             string                   `json:"farmId"`
	ComplianceRecordID string                   `json:"complianceRecordId"`
	AuditType          string                   `json:"auditType"`
	AuditorName        string                   `json:"auditorName"`
	AuditDate          time.Time                `json:"auditDate"`
	AuditStatus        string                   `json:"auditStatus"`
	OverallScore       float64                  `json:"overallScore"`
	FindingsBySeverity map[string]int           `json:"findingsBySeverity"`
	Recommendations    []recommendationResponse `json:"recommendations"`
	FollowUpRequired   bool                     `json:"followUpRequired"`
	FollowUpDeadline   *time.Time               `json:"followUpDeadline,omitempty"`
}

type runAuditResponse struct {
	resultResponse
	CertificationEligible bool     `json:"certificationEligible"`
	CertificationBlockers []string `json:"certificationBlockers,omitempty"`
}

func toResultResponse(result *audit.Result) resultResponse {
	findings := make(map[string]int, len(result.FindingsBySeverity))
	for severity, count := range result.FindingsBySeverity {
		findings[string(severity)] = count
	}
	recommendations := make([]recommendationResponse, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		recommendations = append(recommendations, recommendationResponse{
			Priority: rec.Priority,
			Code:     rec.Code,
			Messages: rec.Message,
		})
	}
	return resultResponse{
		ID:                 result.ID.String(),
		TenantID:           result.TenantID.String(),
		FarmID:             result.FarmID.String(),
		ComplianceRecordID: result.ComplianceRecordID.String(),
		AuditType:          string(result.AuditType),
		AuditorName:        result.AuditorName,
		AuditDate:          result.AuditDate,
		AuditStatus:        string(result.AuditStatus),
		OverallScore:       result.OverallScore,
		FindingsBySeverity: findings,
		Recommendations:    recommendations,
		FollowUpRequired:   result.FollowUpRequired,
		FollowUpDeadline:   result.FollowUpDeadline,
	}
}

func (h *Handler) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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

	var req runAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	auditType, err := audit.ParseType(req.AuditType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.complianceRead.CurrentRecord(ctx, tenantID, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	open, err := h.nonConformities.ListOpen(ctx, tenantID, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.engine.PrepareReport(ctx, record, open, auditType, req.Auditor)
	if err != nil {
		h.logger.WarnContext(ctx, "audit rejected",
			"request_id", middleware.GetRequestID(ctx),
			"tenant_id", tenantID.String(),
			"farm_id", farmID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	certRec := h.engine.CertificationRecommendation(result, record)
	shared.WriteJSON(w, http.StatusCreated, runAuditResponse{
		resultResponse:        toResultResponse(result),
		CertificationEligible: certRec.Eligible,
		CertificationBlockers: certRec.Reasons,
	})
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	auditID, err := id.ParseAuditResultID(chi.URLParam(r, "auditID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.engine.GetByID(r.Context(), auditID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResultResponse(result))
}

func (h *Handler) handleListByFarm(w http.ResponseWriter, r *http.Request) {
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
	results, err := h.engine.ListByFarm(r.Context(), tenantID, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]resultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, toResultResponse(result))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"audits": out})
}
