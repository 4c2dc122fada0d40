package audit

import (
	"context"
	"errors"
	"sort"

	"agrocert/internal/checklist"
	"agrocert/internal/compliance"
	"agrocert/internal/nonconformity"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// Category clustering thresholds. A cluster of failures in one area points at
// a process problem rather than isolated slips.
const (
	cropProtectionClusterThreshold = 3
	recordKeepingClusterThreshold  = 2
)

// buildRecommendations generates the ranked recommendation list. Generation
// is threshold-driven, not free-form: each rule fires off a measurable
// condition of the snapshot.
func (e *Engine) buildRecommendations(
	ctx context.Context,
	record *compliance.ComplianceRecord,
	nonConformities []*nonconformity.NonConformity,
) ([]Recommendation, error) {
	var recs []Recommendation

	if record.MajorMustFails > 0 {
		recs = append(recs, Recommendation{
			Priority: 1,
			Code:     "remediate_major_must",
			Message: checklist.LocalizedText{
				"en": "Remediate all major-must failures immediately; certification is blocked until every major must is compliant.",
				"es": "Corrija de inmediato todos los incumplimientos de obligación mayor; la certificación está bloqueada hasta que todos cumplan.",
			},
		})
	}

	if record.CompliancePercentage < compliance.MinorMustThreshold {
		recs = append(recs, Recommendation{
			Priority: 2,
			Code:     "corrective_action_plan",
			Message: checklist.LocalizedText{
				"en": "Prepare a corrective action plan to raise minor-must compliance above 95%.",
				"es": "Prepare un plan de acciones correctivas para elevar el cumplimiento de obligaciones menores por encima del 95%.",
			},
		})
	}

	clusters, err := e.clusterByCategory(ctx, nonConformities)
	if err != nil {
		return nil, err
	}
	if clusters[checklist.CategoryCropProtection] > cropProtectionClusterThreshold {
		recs = append(recs, Recommendation{
			Priority: 3,
			Code:     "review_crop_protection_process",
			Message: checklist.LocalizedText{
				"en": "Multiple crop protection failures detected; review the plant protection product handling and application process end to end.",
				"es": "Se detectaron múltiples fallas de protección de cultivos; revise de extremo a extremo el proceso de manejo y aplicación de productos fitosanitarios.",
			},
		})
	}
	if clusters[checklist.CategoryRecordKeeping] > recordKeepingClusterThreshold {
		recs = append(recs, Recommendation{
			Priority: 3,
			Code:     "strengthen_record_keeping",
			Message: checklist.LocalizedText{
				"en": "Recurring record-keeping gaps detected; introduce a documented record review cadence.",
				"es": "Se detectaron brechas recurrentes en los registros; introduzca una cadencia documentada de revisión de registros.",
			},
		})
	}

	if len(nonConformities) > 0 {
		recs = append(recs,
			Recommendation{
				Priority: 4,
				Code:     "staff_training",
				Message: checklist.LocalizedText{
					"en": "Schedule refresher training for staff on the control points that failed.",
					"es": "Programe capacitación de refuerzo para el personal sobre los puntos de control incumplidos.",
				},
			},
			Recommendation{
				Priority: 5,
				Code:     "internal_audit_cadence",
				Message: checklist.LocalizedText{
					"en": "Increase internal self-assessment frequency until all non-conformities are closed.",
					"es": "Aumente la frecuencia de autoevaluaciones internas hasta cerrar todas las no conformidades.",
				},
			},
		)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority < recs[j].Priority })
	return recs, nil
}

// clusterByCategory counts non-conformities per checklist category. Unknown
// control points stop the report: a finding that cannot be attributed to the
// catalog indicates corrupted input, not a skippable row.
func (e *Engine) clusterByCategory(ctx context.Context, nonConformities []*nonconformity.NonConformity) (map[checklist.Category]int, error) {
	clusters := make(map[checklist.Category]int)
	for _, nc := range nonConformities {
		cp, err := e.catalog.ByID(ctx, nc.ControlPointID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "non-conformity references unknown control point: "+nc.ControlPointID)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "catalog lookup")
		}
		clusters[cp.Category]++
	}
	return clusters, nil
}
