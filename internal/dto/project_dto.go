package dto

import (
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// ProjectCreateRequest describes the payload for creating a project.
type ProjectCreateRequest struct {
	Name                   string  `json:"name" validate:"required,min=3,max=255"`
	Description            string  `json:"description" validate:"max=5000"`
	MinGroupSize           int     `json:"min_group_size" validate:"required,gte=1"`
	MaxGroupSize           int     `json:"max_group_size" validate:"required,gtefield=MinGroupSize"`
	GroupFormationMethod   string  `json:"group_formation_method" validate:"required,oneof=manual free random"`
	GroupFormationDeadline *string `json:"group_formation_deadline" validate:"omitempty"`
}

// ProjectResponse is returned to API clients when viewing projects.
type ProjectResponse struct {
	ID                     uint       `json:"id"`
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	MinGroupSize           int        `json:"min_group_size"`
	MaxGroupSize           int        `json:"max_group_size"`
	GroupFormationMethod   string     `json:"group_formation_method"`
	GroupFormationDeadline *time.Time `json:"group_formation_deadline"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// NewProjectResponse converts a Project model into a DTO.
func NewProjectResponse(model models.Project) ProjectResponse {
	return ProjectResponse{
		ID:                     model.ID,
		Name:                   model.Name,
		Description:            model.Description,
		MinGroupSize:           model.MinGroupSize,
		MaxGroupSize:           model.MaxGroupSize,
		GroupFormationMethod:   model.GroupFormationMethod,
		GroupFormationDeadline: model.GroupFormationDeadline,
		CreatedAt:              model.CreatedAt,
		UpdatedAt:              model.UpdatedAt,
	}
}

// NewProjectResponseSlice converts project models into DTOs.
func NewProjectResponseSlice(items []models.Project) []ProjectResponse {
	responses := make([]ProjectResponse, 0, len(items))
	for _, project := range items {
		responses = append(responses, NewProjectResponse(project))
	}
	return responses
}
