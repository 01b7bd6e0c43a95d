package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/grouplab-go-api/internal/deadline"
)

const (
	// DeliverableKindArchive expects an uploaded archive payload.
	DeliverableKindArchive = "archive"
	// DeliverableKindGit expects a git repository URL payload.
	DeliverableKindGit = "git_repository"
)

// Deliverable is a gradable unit of work with a deadline and an ordered
// list of validation rules. LatePenaltyPerHour is only meaningful when
// AllowLateSubmission is true.
type Deliverable struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	ProjectID           uint             `gorm:"not null;index" json:"project_id"`
	Title               string           `gorm:"size:255;not null" json:"title"`
	Description         string           `gorm:"type:text" json:"description"`
	Kind                string           `gorm:"size:32;not null" json:"kind"`
	Deadline            time.Time        `gorm:"not null" json:"deadline"`
	AllowLateSubmission bool             `gorm:"not null;default:false" json:"allow_late_submission"`
	LatePenaltyPerHour  float64          `gorm:"not null;default:0" json:"late_penalty_per_hour"`
	MaxFileSizeBytes    *int64           `json:"max_file_size_bytes"`
	RequiredFiles       datatypes.JSON   `gorm:"type:json" json:"required_files"`
	Rules               []ValidationRule `gorm:"constraint:OnDelete:CASCADE" json:"rules"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	Project             Project          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ValidationRule is one declarative, typed check attached to a deliverable.
// Parameters is a kind-specific JSON document.
type ValidationRule struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DeliverableID uint           `gorm:"not null;index" json:"deliverable_id"`
	Kind          string         `gorm:"size:32;not null" json:"kind"`
	Parameters    datatypes.JSON `gorm:"type:json" json:"parameters"`
	Description   string         `gorm:"size:512" json:"description"`
	Position      int            `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DeadlinePolicy converts the deliverable's deadline fields into the
// calculator's policy value.
func (d Deliverable) DeadlinePolicy() deadline.Policy {
	return deadline.Policy{
		Deadline:       d.Deadline,
		AllowLate:      d.AllowLateSubmission,
		PenaltyPerHour: d.LatePenaltyPerHour,
	}
}

// IsPastDue returns true when the deadline has already passed.
func (d Deliverable) IsPastDue(reference time.Time) bool {
	return reference.After(d.Deadline)
}
