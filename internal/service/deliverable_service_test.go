package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/models"
)

func newDeliverableFixture(t *testing.T) (DeliverableService, *memoryDeliverableRepo, models.Project) {
	t.Helper()

	repo := newMemoryDeliverableRepo()
	projects := newMemoryProjectRepo()

	project := models.Project{Name: "Networks", MinGroupSize: 2, MaxGroupSize: 4, GroupFormationMethod: "free"}
	require.NoError(t, projects.Create(context.Background(), &project))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc, err := NewDeliverableService(repo, projects, validate, testLogger())
	require.NoError(t, err)

	return svc, repo, project
}

func TestDeliverableServiceCreateWithRules(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:               "Milestone 1",
		Kind:                models.DeliverableKindArchive,
		Deadline:            time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		AllowLateSubmission: true,
		LatePenaltyPerHour:  0.5,
		RequiredFiles:       []string{"README.md"},
		Rules: []dto.RuleRequest{
			{Kind: "file_size", Parameters: json.RawMessage(`{"max_bytes":1048576}`), Description: "keep it small"},
			{Kind: "folder_structure", Parameters: json.RawMessage(`{"required_dirs":["src","docs"]}`)},
		},
	}

	created, err := svc.Create(context.Background(), project.ID, payload)
	require.NoError(t, err)
	require.Equal(t, "Milestone 1", created.Title)
	require.Len(t, created.Rules, 2)
	require.Equal(t, 0, created.Rules[0].Position)
	require.Equal(t, 1, created.Rules[1].Position)
	require.Equal(t, []string{"README.md"}, created.RequiredFiles)
}

func TestDeliverableServiceCreateRejectsBadRuleParameters(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
		Rules: []dto.RuleRequest{
			{Kind: "file_size", Parameters: json.RawMessage(`{"max_bytes":-5}`)},
		},
	}

	_, err := svc.Create(context.Background(), project.ID, payload)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestDeliverableServiceCreateRejectsUnknownRuleKind(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
		Rules: []dto.RuleRequest{
			{Kind: "virus_scan", Parameters: json.RawMessage(`{}`)},
		},
	}

	_, err := svc.Create(context.Background(), project.ID, payload)
	require.Error(t, err)
}

func TestDeliverableServiceCreateRejectsPastDeadline(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(-time.Hour).Format(time.RFC3339),
	}

	_, err := svc.Create(context.Background(), project.ID, payload)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestDeliverableServiceCreateMissingProject(t *testing.T) {
	svc, _, _ := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
	}

	_, err := svc.Create(context.Background(), 42, payload)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeliverableServiceCreateSanitizesTitle(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	payload := dto.DeliverableCreateRequest{
		Title:    "<b>Milestone</b> 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
	}

	created, err := svc.Create(context.Background(), project.ID, payload)
	require.NoError(t, err)
	require.Equal(t, "Milestone 1", created.Title)
}

func TestDeliverableServiceUpdateReplacesRules(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	created, err := svc.Create(context.Background(), project.ID, dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
		Rules: []dto.RuleRequest{
			{Kind: "file_size", Parameters: json.RawMessage(`{"max_bytes":1024}`)},
		},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, dto.DeliverableUpdateRequest{
		Rules: []dto.RuleRequest{
			{Kind: "file_presence", Parameters: json.RawMessage(`{"paths":["main.go"]}`)},
			{Kind: "file_content", Parameters: json.RawMessage(`{"path":"main.go","must_contain":["package main"]}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Rules, 2)
	require.Equal(t, "file_presence", updated.Rules[0].Kind)
}

func TestDeliverableServiceUpdateMissing(t *testing.T) {
	svc, _, _ := newDeliverableFixture(t)

	title := "Renamed"
	_, err := svc.Update(context.Background(), 42, dto.DeliverableUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrDeliverableNotFound)
}

func TestDeliverableServiceDelete(t *testing.T) {
	svc, _, project := newDeliverableFixture(t)

	created, err := svc.Create(context.Background(), project.ID, dto.DeliverableCreateRequest{
		Title:    "Milestone 1",
		Kind:     models.DeliverableKindArchive,
		Deadline: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrDeliverableNotFound)
}

func TestRuleSchemasRejectExtraProperties(t *testing.T) {
	schemas, err := compileRuleSchemas()
	require.NoError(t, err)

	err = validateRuleParameters(schemas, "file_presence", json.RawMessage(`{"paths":["a"],"bogus":true}`))
	require.Error(t, err)

	err = validateRuleParameters(schemas, "file_presence", json.RawMessage(`{"paths":["a"]}`))
	require.NoError(t, err)
}
