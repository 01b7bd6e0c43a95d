// Package lifecycle implements the submission state machine for a
// (deliverable, group) pair: NoSubmission -> Pending -> {Valid, Invalid},
// with resubmission replacing the live submission in place and withdrawal
// returning to NoSubmission. All transitions are pure computations over
// caller-supplied state and an explicit now.
package lifecycle

import (
	"errors"
	"time"

	"github.com/noah-isme/grouplab-go-api/internal/deadline"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

// State is a submission lifecycle state.
type State string

const (
	// StateNone means no live submission exists for the pair.
	StateNone State = "no_submission"
	// StatePending exists between acceptance and evaluation. AttemptSubmit
	// performs both synchronously, so callers never observe it.
	StatePending State = "pending"
	// StateValid means every validation rule passed.
	StateValid State = "valid"
	// StateInvalid means at least one validation rule failed.
	StateInvalid State = "invalid"
)

var (
	// ErrDeadlinePassed is terminal: the deadline has passed and the
	// deliverable disallows late submission. No retry can succeed.
	ErrDeadlinePassed = errors.New("deliverable deadline has passed")
	// ErrInvalidPayload indicates the payload fields violate the archive/git
	// exclusivity invariant or do not match the deliverable kind.
	ErrInvalidPayload = errors.New("submission payload is invalid")
	// ErrNoSubmission indicates a withdrawal for a pair with no live submission.
	ErrNoSubmission = errors.New("no live submission to withdraw")
)

// Deliverable is the engine's view of a deliverable's submission policy.
type Deliverable struct {
	Kind             rules.ArtifactKind
	Policy           deadline.Policy
	MaxFileSizeBytes *int64
	Rules            []rules.Rule
}

// Payload references the submitted artifact. Exactly one of the archive
// triple (FilePath, FileName, FileSize) or GitURL must be set.
type Payload struct {
	FilePath string
	FileName string
	FileSize int64
	GitURL   string
}

// Kind derives the payload kind from which reference is populated.
func (p Payload) Kind() (rules.ArtifactKind, error) {
	hasArchive := p.FilePath != "" || p.FileName != "" || p.FileSize > 0
	hasGit := p.GitURL != ""

	switch {
	case hasArchive && hasGit:
		return "", ErrInvalidPayload
	case hasArchive:
		if p.FilePath == "" || p.FileName == "" {
			return "", ErrInvalidPayload
		}
		return rules.ArtifactArchive, nil
	case hasGit:
		return rules.ArtifactGit, nil
	default:
		return "", ErrInvalidPayload
	}
}

// Submission is the next-state record the engine hands back to the caller.
// The caller owns persistence; the engine never mutates stored records.
type Submission struct {
	DeliverableID uint
	GroupID       uint
	Kind          rules.ArtifactKind
	Payload       Payload
	SubmittedAt   time.Time
	Assessment    deadline.Assessment
	State         State
	Result        rules.Result
}

// Engine combines the deadline calculator and the rule evaluator into the
// accept-and-evaluate transition.
type Engine struct {
	evaluator *rules.Evaluator
}

// NewEngine constructs a submission engine around the given evaluator.
func NewEngine(evaluator *rules.Evaluator) *Engine {
	if evaluator == nil {
		evaluator = rules.NewEvaluator(nil)
	}
	return &Engine{evaluator: evaluator}
}

// AttemptSubmit decides whether a new submission may replace the live one
// and, on acceptance, evaluates it. The returned submission is already in
// its final state for this attempt; the conceptual Pending state never
// escapes this call.
func (e *Engine) AttemptSubmit(d Deliverable, deliverableID, groupID uint, payload Payload, artifact rules.Artifact, now time.Time) (Submission, error) {
	if !deadline.CanSubmit(d.Policy, now) {
		return Submission{}, ErrDeadlinePassed
	}

	return e.accept(d, deliverableID, groupID, payload, artifact, now)
}

// ForceSubmit accepts a submission even after a closed deadline. Lateness
// and penalty are still assessed and rules still run; only the gate is
// bypassed. Authorization for this path belongs to the caller.
func (e *Engine) ForceSubmit(d Deliverable, deliverableID, groupID uint, payload Payload, artifact rules.Artifact, now time.Time) (Submission, error) {
	return e.accept(d, deliverableID, groupID, payload, artifact, now)
}

func (e *Engine) accept(d Deliverable, deliverableID, groupID uint, payload Payload, artifact rules.Artifact, now time.Time) (Submission, error) {
	kind, err := payload.Kind()
	if err != nil {
		return Submission{}, err
	}
	if kind != d.Kind {
		return Submission{}, ErrInvalidPayload
	}

	submission := Submission{
		DeliverableID: deliverableID,
		GroupID:       groupID,
		Kind:          kind,
		Payload:       payload,
		SubmittedAt:   now,
		Assessment:    deadline.Assess(d.Policy, now),
		State:         StatePending,
	}

	submission.Result = e.evaluator.Evaluate(d.Rules, rules.Limits{MaxFileSizeBytes: d.MaxFileSizeBytes}, artifact)
	if submission.Result.Valid {
		submission.State = StateValid
	} else {
		submission.State = StateInvalid
	}

	return submission, nil
}

// Withdraw transitions any live submission back to NoSubmission. It has no
// effect on deadline or penalty fields of other submissions.
func (e *Engine) Withdraw(current *Submission) (State, error) {
	if current == nil {
		return StateNone, ErrNoSubmission
	}
	return StateNone, nil
}
