// Package handler exposes the certificate lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agrocert/internal/certificate"
	"agrocert/internal/transport/http/shared"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Manager defines the lifecycle operations the handler delegates to.
type Manager interface {
	Issue(ctx context.Context, input certificate.IssueInput) (*certificate.Certificate, error)
	Approve(ctx context.Context, certID id.CertificateID) (*certificate.Certificate, error)
	Suspend(ctx context.Context, certID id.CertificateID) (*certificate.Certificate, error)
	Withdraw(ctx context.Context, certID id.CertificateID) (*certificate.Certificate, error)
	RequestRenewal(ctx context.Context, certID id.CertificateID, requestedBy string) (*certificate.Renewal, error)
	ApproveRenewal(ctx context.Context, renewalID id.RenewalID) (*certificate.Certificate, error)
	RejectRenewal(ctx context.Context, renewalID id.RenewalID) (*certificate.Renewal, error)
	CurrentForFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*certificate.Certificate, error)
}

type Handler struct {
	manager Manager
	logger  *slog.Logger
}

func New(manager Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Register mounts the certificate routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.handleIssue)
	r.Post("/certificates/{certID}/approve", h.transition(h.manager.Approve))
	r.Post("/certificates/{certID}/suspend", h.transition(h.manager.Suspend))
	r.Post("/certificates/{certID}/withdraw", h.transition(h.manager.Withdraw))
	r.Post("/certificates/{certID}/renewals", h.handleRequestRenewal)
	r.Post("/renewals/{renewalID}/approve", h.handleApproveRenewal)
	r.Post("/renewals/{renewalID}/reject", h.handleRejectRenewal)
	r.Get("/tenants/{tenantID}/farms/{farmID}/certificate", h.handleCurrentForFarm)
}

type issueRequest struct {
	TenantID                      string    `json:"tenantId"`
	FarmID                        string    `json:"farmId"`
	GGN                           string    `json:"ggn"`
	ValidFrom                     time.Time `json:"validFrom"`
	ValidUntil                    time.Time `json:"validUntil"`
	MajorMustCompliance           bool      `json:"majorMustCompliance"`
	MinorMustCompliancePercentage float64   `json:"minorMustCompliancePercentage"`
}

type certificateResponse struct {
	ID                            string    `json:"id"`
	TenantID                      string    `json:"tenantId"`
	FarmID                        string    `json:"farmId"`
	GGN                           string    `json:"ggn"`
	Status                        string    `json:"status"`
	ValidFrom                     time.Time `json:"validFrom"`
	ValidUntil                    time.Time `json:"validUntil"`
	MajorMustCompliance           bool      `json:"majorMustCompliance"`
	MinorMustCompliancePercentage float64   `json:"minorMustCompliancePercentage"`
	SupersededBy                  *string   `json:"supersededBy,omitempty"`
	DaysUntilExpiry               int       `json:"daysUntilExpiry"`
}

type renewalResponse struct {
	ID               string     `json:"id"`
	CertificateID    string     `json:"certificateId"`
	RequestedBy      string     `json:"requestedBy"`
	RequestedAt      time.Time  `json:"requestedAt"`
	Status           string     `json:"status"`
	DecidedAt        *time.Time `json:"decidedAt,omitempty"`
	NewCertificateID *string    `json:"newCertificateId,omitempty"`
}

func toCertificateResponse(cert *certificate.Certificate) certificateResponse {
	resp := certificateResponse{
		ID:                            cert.ID.String(),
		TenantID:                      cert.TenantID.String(),
		FarmID:                        cert.FarmID.String(),
		GGN:                           cert.GGN.String(),
		Status:                        string(cert.Status),
		ValidFrom:                     cert.ValidFrom,
		ValidUntil:                    cert.ValidUntil,
		MajorMustCompliance:           cert.MajorMustCompliance,
		MinorMustCompliancePercentage: cert.MinorMustCompliancePercentage,
		DaysUntilExpiry:               cert.DaysUntilExpiry(time.Now()),
	}
	if cert.SupersededBy != nil {
		s := cert.SupersededBy.String()
		resp.SupersededBy = &s
	}
	return resp
}

func toRenewalResponse(renewal *certificate.Renewal) renewalResponse {
	resp := renewalResponse{
		ID:            renewal.ID.String(),
		CertificateID: renewal.CertificateID.String(),
		RequestedBy:   renewal.RequestedBy,
		RequestedAt:   renewal.RequestedAt,
		Status:        string(renewal.Status),
		DecidedAt:     renewal.DecidedAt,
	}
	if renewal.NewCertificateID != nil {
		s := renewal.NewCertificateID.String()
		resp.NewCertificateID = &s
	}
	return resp
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	tenantID, err := id.ParseTenantID(req.TenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	farmID, err := id.ParseFarmID(req.FarmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	cert, err := h.manager.Issue(r.Context(), certificate.IssueInput{
		TenantID:                      tenantID,
		FarmID:                        farmID,
		GGN:                           id.GGN(req.GGN),
		ValidFrom:                     req.ValidFrom,
		ValidUntil:                    req.ValidUntil,
		MajorMustCompliance:           req.MajorMustCompliance,
		MinorMustCompliancePercentage: req.MinorMustCompliancePercentage,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "certificate issuance rejected", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

// transition adapts the one-argument lifecycle actions to a common handler.
func (h *Handler) transition(action func(context.Context, id.CertificateID) (*certificate.Certificate, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certID, err := id.ParseCertificateID(chi.URLParam(r, "certID"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		cert, err := action(r.Context(), certID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
	}
}

type requestRenewalRequest struct {
	RequestedBy string `json:"requestedBy"`
}

func (h *Handler) handleRequestRenewal(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertificateID(chi.URLParam(r, "certID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req requestRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	renewal, err := h.manager.RequestRenewal(r.Context(), certID, req.RequestedBy)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRenewalResponse(renewal))
}

func (h *Handler) handleApproveRenewal(w http.ResponseWriter, r *http.Request) {
	renewalID, err := id.ParseRenewalID(chi.URLParam(r, "renewalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	successor, err := h.manager.ApproveRenewal(r.Context(), renewalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toCertificateResponse(successor))
}

func (h *Handler) handleRejectRenewal(w http.ResponseWriter, r *http.Request) {
	renewalID, err := id.ParseRenewalID(chi.URLParam(r, "renewalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	renewal, err := h.manager.RejectRenewal(r.Context(), renewalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRenewalResponse(renewal))
}

func (h *Handler) handleCurrentForFarm(w http.ResponseWriter, r *http.Request) {
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
	cert, err := h.manager.CurrentForFarm(r.Context(), tenantID, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}
