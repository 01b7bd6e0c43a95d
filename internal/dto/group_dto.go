package dto

import (
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/formation"
	"github.com/noah-isme/grouplab-go-api/internal/models"
)

// GroupCreateRequest describes the payload for a student creating a group.
type GroupCreateRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,min=3,max=255"`
}

// GroupJoinRequest describes the payload for a student joining a group.
type GroupJoinRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// GroupLeaveRequest describes the payload for a student leaving their group.
type GroupLeaveRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// GroupMemberResponse summarizes one member of a group.
type GroupMemberResponse struct {
	StudentID uint      `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joined_at"`
}

// GroupResponse is returned to API clients when viewing groups. The size
// compliance flags are advisory and never block the group from existing.
type GroupResponse struct {
	ID         uint                  `json:"id"`
	ProjectID  uint                  `json:"project_id"`
	Name       string                `json:"name"`
	Size       int                   `json:"size"`
	UnderSized bool                  `json:"under_sized"`
	OverSized  bool                  `json:"over_sized"`
	Members    []GroupMemberResponse `json:"members"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// GroupActionsResponse reports which group mutations the student may
// initiate right now.
type GroupActionsResponse struct {
	eligibility.Actions
}

// NewGroupResponse converts a Group model and its compliance flags into a
// DTO.
func NewGroupResponse(model models.Group, compliance formation.Compliance) GroupResponse {
	members := make([]GroupMemberResponse, 0, len(model.Members))
	for _, member := range model.Members {
		members = append(members, GroupMemberResponse{
			StudentID: member.StudentID,
			Name:      member.Student.Name,
			Email:     member.Student.Email,
			JoinedAt:  member.JoinedAt,
		})
	}

	return GroupResponse{
		ID:         model.ID,
		ProjectID:  model.ProjectID,
		Name:       model.Name,
		Size:       model.Size(),
		UnderSized: compliance.UnderSized,
		OverSized:  compliance.OverSized,
		Members:    members,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
