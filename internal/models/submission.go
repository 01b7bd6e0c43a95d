package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// SubmissionStatusPending is set between acceptance and evaluation.
	SubmissionStatusPending = "pending"
	// SubmissionStatusValid means every validation rule passed.
	SubmissionStatusValid = "valid"
	// SubmissionStatusInvalid means at least one validation rule failed.
	SubmissionStatusInvalid = "invalid"
)

// Submission is one group's artifact against one deliverable. At most one
// live submission exists per (deliverable, group) pair: resubmission
// replaces, withdrawal deletes. Lateness fields are fixed at creation time.
type Submission struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	DeliverableID     uint           `gorm:"not null;uniqueIndex:idx_submissions_deliverable_group" json:"deliverable_id"`
	GroupID           uint           `gorm:"not null;uniqueIndex:idx_submissions_deliverable_group" json:"group_id"`
	Kind              string         `gorm:"size:32;not null" json:"kind"`
	FilePath          string         `gorm:"size:512" json:"file_path"`
	FileName          string         `gorm:"size:255" json:"file_name"`
	FileSize          int64          `json:"file_size"`
	GitURL            string         `gorm:"size:512" json:"git_url"`
	SubmittedAt       time.Time      `gorm:"not null" json:"submitted_at"`
	IsLate            bool           `gorm:"not null;default:false" json:"is_late"`
	HoursLate         int            `gorm:"not null;default:0" json:"hours_late"`
	PenaltyPoints     float64        `gorm:"not null;default:0" json:"penalty_points"`
	ValidationStatus  string         `gorm:"size:16;not null;default:pending" json:"validation_status"`
	ValidationDetails datatypes.JSON `gorm:"type:json" json:"validation_details"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Deliverable       Deliverable    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"deliverable"`
	Group             Group          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"group"`
}

// IsValidated reports whether evaluation has produced a final status.
func (s Submission) IsValidated() bool {
	return s.ValidationStatus == SubmissionStatusValid || s.ValidationStatus == SubmissionStatusInvalid
}
