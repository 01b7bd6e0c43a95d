package models

import "time"

// Group is a set of students submitting together within one project. A
// student belongs to at most one group per project; that invariant is
// enforced at the eligibility boundary, not here.
type Group struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ProjectID uint          `gorm:"not null;index" json:"project_id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Project   Project       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Members   []GroupMember `gorm:"constraint:OnDelete:CASCADE" json:"members"`
}

// GroupMember links a student to a group.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	JoinedAt  time.Time `json:"joined_at"`
	Student   Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// Size returns the current member count.
func (g Group) Size() int {
	return len(g.Members)
}

// HasMember reports whether the student belongs to the group.
func (g Group) HasMember(studentID uint) bool {
	for _, member := range g.Members {
		if member.StudentID == studentID {
			return true
		}
	}
	return false
}
