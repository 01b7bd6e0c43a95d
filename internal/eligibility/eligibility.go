// Package eligibility is the aggregation boundary between the submission
// and formation engines and calling code. It answers "can this student act
// on this deliverable now" and "can this student act on a group now",
// adding no decision logic of its own beyond the membership gate.
package eligibility

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/deadline"
	"github.com/noah-isme/grouplab-go-api/internal/formation"
	"github.com/noah-isme/grouplab-go-api/internal/lifecycle"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

// ErrNotAMember indicates the acting student has no group for the project,
// so no submission action is authorized.
var ErrNotAMember = errors.New("student has no group for this project")

// Membership is the facade's view of a student's current group.
type Membership struct {
	GroupID     uint
	MemberCount int
}

// MembershipLookup resolves a student's group within a project. It must
// reflect the most recent committed state; the facade treats its result as
// ground truth for a single call.
type MembershipLookup interface {
	GroupForStudent(ctx context.Context, projectID, studentID uint) (*Membership, error)
}

// Actions reports which group mutations the student may initiate right now.
type Actions struct {
	CanCreate bool `json:"can_create"`
	CanJoin   bool `json:"can_join"`
	CanLeave  bool `json:"can_leave"`
}

// Facade composes the submission state machine and the formation engine.
type Facade struct {
	lookup MembershipLookup
	engine *lifecycle.Engine
}

// NewFacade builds the facade around a membership lookup and a submission
// engine.
func NewFacade(lookup MembershipLookup, engine *lifecycle.Engine) *Facade {
	if engine == nil {
		engine = lifecycle.NewEngine(nil)
	}
	return &Facade{lookup: lookup, engine: engine}
}

// CanSubmit checks whether the student may submit against the deliverable
// right now. It returns the membership that would own the submission, or
// ErrNotAMember / lifecycle.ErrDeadlinePassed.
func (f *Facade) CanSubmit(ctx context.Context, projectID, studentID uint, d lifecycle.Deliverable, now time.Time) (Membership, error) {
	membership, err := f.membership(ctx, projectID, studentID)
	if err != nil {
		return Membership{}, err
	}

	if !deadline.CanSubmit(d.Policy, now) {
		return Membership{}, lifecycle.ErrDeadlinePassed
	}

	return membership, nil
}

// Submit resolves membership and runs the accept-and-evaluate transition on
// behalf of the student's group.
func (f *Facade) Submit(ctx context.Context, projectID, studentID, deliverableID uint, d lifecycle.Deliverable, payload lifecycle.Payload, artifact rules.Artifact, now time.Time) (lifecycle.Submission, error) {
	membership, err := f.membership(ctx, projectID, studentID)
	if err != nil {
		return lifecycle.Submission{}, err
	}

	return f.engine.AttemptSubmit(d, deliverableID, membership.GroupID, payload, artifact, now)
}

// ForceSubmit is the teacher-override path: membership still gates which
// group owns the submission, but the closed-deadline check is bypassed.
func (f *Facade) ForceSubmit(ctx context.Context, projectID, studentID, deliverableID uint, d lifecycle.Deliverable, payload lifecycle.Payload, artifact rules.Artifact, now time.Time) (lifecycle.Submission, error) {
	membership, err := f.membership(ctx, projectID, studentID)
	if err != nil {
		return lifecycle.Submission{}, err
	}

	return f.engine.ForceSubmit(d, deliverableID, membership.GroupID, payload, artifact, now)
}

// GroupActions evaluates the formation predicates for the student. The
// capacity of a join target is the caller's check, against cfg.MaxSize.
func (f *Facade) GroupActions(ctx context.Context, cfg formation.Config, projectID, studentID uint, now time.Time) (Actions, error) {
	membership, err := f.lookup.GroupForStudent(ctx, projectID, studentID)
	if err != nil {
		return Actions{}, err
	}

	hasGroup := membership != nil
	return Actions{
		CanCreate: formation.CanCreateGroup(cfg, hasGroup, now),
		CanJoin:   formation.CanJoinGroup(cfg, hasGroup, now),
		CanLeave:  formation.CanModifyGroup(cfg, hasGroup, now),
	}, nil
}

// MembershipFor resolves the student's membership or ErrNotAMember.
func (f *Facade) MembershipFor(ctx context.Context, projectID, studentID uint) (Membership, error) {
	return f.membership(ctx, projectID, studentID)
}

func (f *Facade) membership(ctx context.Context, projectID, studentID uint) (Membership, error) {
	membership, err := f.lookup.GroupForStudent(ctx, projectID, studentID)
	if err != nil {
		return Membership{}, err
	}
	if membership == nil {
		return Membership{}, ErrNotAMember
	}
	return *membership, nil
}
