package models

import (
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/formation"
)

// Project is a course project whose deliverables are submitted by groups.
type Project struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	Name                   string     `gorm:"size:255;not null" json:"name"`
	Description            string     `gorm:"type:text" json:"description"`
	MinGroupSize           int        `gorm:"not null;default:1" json:"min_group_size"`
	MaxGroupSize           int        `gorm:"not null;default:1" json:"max_group_size"`
	GroupFormationMethod   string     `gorm:"size:16;not null;default:manual" json:"group_formation_method"`
	GroupFormationDeadline *time.Time `json:"group_formation_deadline"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	Groups                 []Group    `json:"groups,omitempty"`
}

// FormationConfig converts the project's formation fields into the engine's
// configuration value.
func (p Project) FormationConfig() formation.Config {
	return formation.Config{
		Method:   formation.Method(p.GroupFormationMethod),
		MinSize:  p.MinGroupSize,
		MaxSize:  p.MaxGroupSize,
		Deadline: p.GroupFormationDeadline,
	}
}
