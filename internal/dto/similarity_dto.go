package dto

import (
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// SimilarityPairResponse is one pairwise comparison with the derived
// suspicion flag.
type SimilarityPairResponse struct {
	GroupAID   uint    `json:"group_a_id"`
	GroupBID   uint    `json:"group_b_id"`
	Score      float64 `json:"score"`
	Suspicious bool    `json:"suspicious"`
}

// SimilarityReportResponse is returned when viewing a deliverable's
// similarity report.
type SimilarityReportResponse struct {
	DeliverableID uint                     `json:"deliverable_id"`
	Threshold     float64                  `json:"threshold"`
	GeneratedAt   time.Time                `json:"generated_at"`
	Pairs         []SimilarityPairResponse `json:"pairs"`
}

// NewSimilarityReportResponse converts a report model into a DTO, deriving
// the suspicion flag from the stored threshold.
func NewSimilarityReportResponse(model models.SimilarityReport) SimilarityReportResponse {
	pairs := make([]SimilarityPairResponse, 0, len(model.Pairs))
	for _, pair := range model.Pairs {
		pairs = append(pairs, SimilarityPairResponse{
			GroupAID:   pair.GroupAID,
			GroupBID:   pair.GroupBID,
			Score:      pair.Score,
			Suspicious: pair.Suspicious(model.Threshold),
		})
	}

	return SimilarityReportResponse{
		DeliverableID: model.DeliverableID,
		Threshold:     model.Threshold,
		GeneratedAt:   model.GeneratedAt,
		Pairs:         pairs,
	}
}
