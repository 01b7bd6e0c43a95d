package models

import "time"

// SimilarityReport caches the result of the remote cross-submission
// comparator for one deliverable. The comparison algorithm itself lives
// outside this service; scores arrive precomputed.
type SimilarityReport struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	DeliverableID uint             `gorm:"not null;index" json:"deliverable_id"`
	Threshold     float64          `gorm:"not null" json:"threshold"`
	GeneratedAt   time.Time        `gorm:"not null" json:"generated_at"`
	Pairs         []SimilarityPair `gorm:"constraint:OnDelete:CASCADE" json:"pairs"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// SimilarityPair is one pairwise group comparison with a score in [0,1].
type SimilarityPair struct {
	ID                 uint    `gorm:"primaryKey" json:"id"`
	SimilarityReportID uint    `gorm:"not null;index" json:"similarity_report_id"`
	GroupAID           uint    `gorm:"not null" json:"group_a_id"`
	GroupBID           uint    `gorm:"not null" json:"group_b_id"`
	Score              float64 `gorm:"not null" json:"score"`
}

// Suspicious reports whether the pair's score meets or exceeds the
// threshold.
func (p SimilarityPair) Suspicious(threshold float64) bool {
	return p.Score >= threshold
}
