package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// RuleRequest describes one validation rule in a deliverable payload.
type RuleRequest struct {
	Kind        string          `json:"kind" validate:"required,oneof=file_size file_presence folder_structure file_content"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description" validate:"max=512"`
}

// DeliverableCreateRequest describes the payload for creating a deliverable.
type DeliverableCreateRequest struct {
	Title               string        `json:"title" validate:"required,min=3,max=255"`
	Description         string        `json:"description" validate:"max=5000"`
	Kind                string        `json:"kind" validate:"required,oneof=archive git_repository"`
	Deadline            string        `json:"deadline" validate:"required"`
	AllowLateSubmission bool          `json:"allow_late_submission"`
	LatePenaltyPerHour  float64       `json:"late_penalty_per_hour" validate:"gte=0"`
	MaxFileSizeBytes    *int64        `json:"max_file_size_bytes" validate:"omitempty,gt=0"`
	RequiredFiles       []string      `json:"required_files" validate:"omitempty,dive,min=1"`
	Rules               []RuleRequest `json:"rules" validate:"omitempty,dive"`
}

// DeliverableUpdateRequest patches an existing deliverable.
type DeliverableUpdateRequest struct {
	Title               *string       `json:"title" validate:"omitempty,min=3,max=255"`
	Description         *string       `json:"description" validate:"omitempty,max=5000"`
	Deadline            *string       `json:"deadline"`
	AllowLateSubmission *bool         `json:"allow_late_submission"`
	LatePenaltyPerHour  *float64      `json:"late_penalty_per_hour" validate:"omitempty,gte=0"`
	MaxFileSizeBytes    *int64        `json:"max_file_size_bytes" validate:"omitempty,gt=0"`
	RequiredFiles       []string      `json:"required_files" validate:"omitempty,dive,min=1"`
	Rules               []RuleRequest `json:"rules" validate:"omitempty,dive"`
}

// RuleResponse serializes one validation rule.
type RuleResponse struct {
	ID          uint            `json:"id"`
	Kind        string          `json:"kind"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description"`
	Position    int             `json:"position"`
}

// DeliverableResponse is returned to API clients when viewing deliverables.
type DeliverableResponse struct {
	ID                  uint           `json:"id"`
	ProjectID           uint           `json:"project_id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Kind                string         `json:"kind"`
	Deadline            time.Time      `json:"deadline"`
	AllowLateSubmission bool           `json:"allow_late_submission"`
	LatePenaltyPerHour  float64        `json:"late_penalty_per_hour"`
	MaxFileSizeBytes    *int64         `json:"max_file_size_bytes"`
	RequiredFiles       []string       `json:"required_files"`
	Rules               []RuleResponse `json:"rules"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// NewDeliverableResponse converts a Deliverable model into a DTO.
func NewDeliverableResponse(model models.Deliverable) DeliverableResponse {
	response := DeliverableResponse{
		ID:                  model.ID,
		ProjectID:           model.ProjectID,
		Title:               model.Title,
		Description:         model.Description,
		Kind:                model.Kind,
		Deadline:            model.Deadline,
		AllowLateSubmission: model.AllowLateSubmission,
		LatePenaltyPerHour:  model.LatePenaltyPerHour,
		MaxFileSizeBytes:    model.MaxFileSizeBytes,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}

	if len(model.RequiredFiles) > 0 {
		var files []string
		if err := json.Unmarshal(model.RequiredFiles, &files); err == nil {
			response.RequiredFiles = files
		}
	}

	rules := make([]RuleResponse, 0, len(model.Rules))
	for _, rule := range model.Rules {
		rules = append(rules, RuleResponse{
			ID:          rule.ID,
			Kind:        rule.Kind,
			Parameters:  json.RawMessage(rule.Parameters),
			Description: rule.Description,
			Position:    rule.Position,
		})
	}
	response.Rules = rules

	return response
}

// NewDeliverableResponseSlice converts deliverable models into DTOs.
func NewDeliverableResponseSlice(items []models.Deliverable) []DeliverableResponse {
	responses := make([]DeliverableResponse, 0, len(items))
	for _, deliverable := range items {
		responses = append(responses, NewDeliverableResponse(deliverable))
	}
	return responses
}
