package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

// SubmissionCreateRequest describes the multipart payload for submitting a
// deliverable on behalf of the student's group. Archive deliverables carry
// a file part; git deliverables carry GitURL instead.
type SubmissionCreateRequest struct {
	StudentID uint   `form:"student_id" validate:"required,gt=0"`
	GitURL    string `form:"git_url" validate:"omitempty,url"`
}

// SubmissionWithdrawRequest identifies the student withdrawing the group's
// submission.
type SubmissionWithdrawRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// GroupLite summarizes a group in submission responses.
type GroupLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint          `json:"id"`
	DeliverableID    uint          `json:"deliverable_id"`
	GroupID          uint          `json:"group_id"`
	Kind             string        `json:"kind"`
	FilePath         string        `json:"file_path,omitempty"`
	FileName         string        `json:"file_name,omitempty"`
	FileSize         int64         `json:"file_size,omitempty"`
	GitURL           string        `json:"git_url,omitempty"`
	SubmittedAt      time.Time     `json:"submitted_at"`
	IsLate           bool          `json:"is_late"`
	HoursLate        int           `json:"hours_late"`
	PenaltyPoints    float64       `json:"penalty_points"`
	ValidationStatus string        `json:"validation_status"`
	Validation       *rules.Result `json:"validation,omitempty"`
	Group            GroupLite     `json:"group"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		DeliverableID:    model.DeliverableID,
		GroupID:          model.GroupID,
		Kind:             model.Kind,
		FilePath:         model.FilePath,
		FileName:         model.FileName,
		FileSize:         model.FileSize,
		GitURL:           model.GitURL,
		SubmittedAt:      model.SubmittedAt,
		IsLate:           model.IsLate,
		HoursLate:        model.HoursLate,
		PenaltyPoints:    model.PenaltyPoints,
		ValidationStatus: model.ValidationStatus,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if len(model.ValidationDetails) > 0 {
		var result rules.Result
		if err := json.Unmarshal(model.ValidationDetails, &result); err == nil {
			response.Validation = &result
		}
	}

	if model.Group.ID != 0 {
		response.Group = GroupLite{
			ID:   model.Group.ID,
			Name: model.Group.Name,
			Size: model.Group.Size(),
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
