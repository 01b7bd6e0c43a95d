package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grouplab-go-api/internal/deadline"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

var due = time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)

func archiveDeliverable(allowLate bool, ruleList ...rules.Rule) Deliverable {
	return Deliverable{
		Kind: rules.ArtifactArchive,
		Policy: deadline.Policy{
			Deadline:       due,
			AllowLate:      allowLate,
			PenaltyPerHour: 0.5,
		},
		Rules: ruleList,
	}
}

func archivePayload() Payload {
	return Payload{FilePath: "uploads/g1/project.zip", FileName: "project.zip", FileSize: 2048}
}

func archiveArtifact() rules.Artifact {
	return rules.Artifact{
		Kind:      rules.ArtifactArchive,
		SizeBytes: 2048,
		Files:     []string{"README.md", "src/main.go"},
	}
}

func TestAttemptSubmitOnTimeValid(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(false, rules.Rule{
		Kind:         rules.KindFilePresence,
		FilePresence: &rules.FilePresenceParams{Paths: []string{"README.md"}},
	})

	submission, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), due.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, StateValid, submission.State)
	require.False(t, submission.Assessment.IsLate)
	require.Zero(t, submission.Assessment.HoursLate)
	require.Equal(t, uint(7), submission.DeliverableID)
	require.Equal(t, uint(3), submission.GroupID)
}

func TestAttemptSubmitFailedRuleYieldsInvalidState(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(false, rules.Rule{
		Kind:         rules.KindFilePresence,
		FilePresence: &rules.FilePresenceParams{Paths: []string{"Makefile"}},
	})

	submission, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), due.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, StateInvalid, submission.State)
	require.False(t, submission.Result.Valid)
}

func TestAttemptSubmitAfterDeadlineWithoutAllowanceIsTerminal(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(false)

	_, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), due.Add(time.Second))
	require.ErrorIs(t, err, ErrDeadlinePassed)

	// Still terminal much later, and regardless of payload validity.
	_, err = engine.AttemptSubmit(d, 7, 3, Payload{}, archiveArtifact(), due.Add(500*time.Hour))
	require.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestAttemptSubmitLateWithAllowanceAssessesPenalty(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(true)

	submittedAt := time.Date(2025, 6, 2, 2, 30, 0, 0, time.UTC)
	submission, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), submittedAt)
	require.NoError(t, err)
	require.True(t, submission.Assessment.IsLate)
	require.Equal(t, 3, submission.Assessment.HoursLate)
	require.InDelta(t, 1.5, submission.Assessment.PenaltyPoints, 1e-9)
	require.Equal(t, StateValid, submission.State)
}

func TestAttemptSubmitPayloadExclusivity(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(false)
	now := due.Add(-time.Hour)

	testCases := []struct {
		name    string
		payload Payload
	}{
		{"empty payload", Payload{}},
		{"both archive and git set", Payload{FilePath: "a.zip", FileName: "a.zip", FileSize: 1, GitURL: "https://git.test/r.git"}},
		{"archive missing file name", Payload{FilePath: "uploads/a.zip", FileSize: 1}},
		{"git url on archive deliverable", Payload{GitURL: "https://git.test/r.git"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.AttemptSubmit(d, 7, 3, tc.payload, archiveArtifact(), now)
			require.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestAttemptSubmitGitDeliverable(t *testing.T) {
	engine := NewEngine(nil)
	d := Deliverable{
		Kind:   rules.ArtifactGit,
		Policy: deadline.Policy{Deadline: due},
		Rules: []rules.Rule{
			{Kind: rules.KindFilePresence, FilePresence: &rules.FilePresenceParams{Paths: []string{"README.md"}}},
		},
	}

	payload := Payload{GitURL: "https://git.test/group/project.git"}
	submission, err := engine.AttemptSubmit(d, 7, 3, payload, rules.Artifact{Kind: rules.ArtifactGit}, due.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, StateValid, submission.State)
	require.NotEmpty(t, submission.Result.Warnings)

	_, err = engine.AttemptSubmit(d, 7, 3, archivePayload(), rules.Artifact{Kind: rules.ArtifactGit}, due.Add(-time.Hour))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestAttemptSubmitIsDeterministic(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(true, rules.Rule{
		Kind:     rules.KindFileSize,
		FileSize: &rules.FileSizeParams{MaxBytes: 4096},
	})
	now := due.Add(90 * time.Minute)

	first, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), now)
	require.NoError(t, err)
	second, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), now)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestWithdrawThenResubmitReproducesState(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(true, rules.Rule{
		Kind:         rules.KindFilePresence,
		FilePresence: &rules.FilePresenceParams{Paths: []string{"README.md"}},
	})
	now := due.Add(-2 * time.Hour)

	original, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), now)
	require.NoError(t, err)

	state, err := engine.Withdraw(&original)
	require.NoError(t, err)
	require.Equal(t, StateNone, state)

	recreated, err := engine.AttemptSubmit(d, 7, 3, archivePayload(), archiveArtifact(), now)
	require.NoError(t, err)
	require.Equal(t, original.State, recreated.State)
	require.Equal(t, original.Assessment, recreated.Assessment)
}

func TestWithdrawWithoutLiveSubmission(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Withdraw(nil)
	require.ErrorIs(t, err, ErrNoSubmission)
}

func TestForceSubmitBypassesClosedDeadline(t *testing.T) {
	engine := NewEngine(nil)
	d := archiveDeliverable(false)
	now := due.Add(2*time.Hour + time.Minute)

	submission, err := engine.ForceSubmit(d, 7, 3, archivePayload(), archiveArtifact(), now)
	require.NoError(t, err)
	require.True(t, submission.Assessment.IsLate)
	require.Equal(t, 3, submission.Assessment.HoursLate)

	// The gate is bypassed, not the payload invariant.
	_, err = engine.ForceSubmit(d, 7, 3, Payload{}, archiveArtifact(), now)
	require.ErrorIs(t, err, ErrInvalidPayload)
}
