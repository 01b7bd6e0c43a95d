package repository

import (
	"context"

	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
)

// MembershipLookup adapts the group repository to the eligibility facade's
// lookup contract. A missing membership maps to a nil result, not an error.
type MembershipLookup struct {
	groups GroupRepository
}

// NewMembershipLookup builds the adapter.
func NewMembershipLookup(groups GroupRepository) *MembershipLookup {
	return &MembershipLookup{groups: groups}
}

// GroupForStudent implements eligibility.MembershipLookup.
func (l *MembershipLookup) GroupForStudent(ctx context.Context, projectID, studentID uint) (*eligibility.Membership, error) {
	group, err := l.groups.GetForStudent(ctx, projectID, studentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &eligibility.Membership{GroupID: group.ID, MemberCount: group.Size()}, nil
}
