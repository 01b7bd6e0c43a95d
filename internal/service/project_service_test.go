package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
)

func TestProjectServiceCreateSuccess(t *testing.T) {
	repo := newMemoryProjectRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewProjectService(repo, validate, testLogger())

	deadline := time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339)
	payload := dto.ProjectCreateRequest{
		Name:                   "Operating Systems",
		Description:            "Build a shell",
		MinGroupSize:           2,
		MaxGroupSize:           4,
		GroupFormationMethod:   "free",
		GroupFormationDeadline: &deadline,
	}

	created, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "Operating Systems", created.Name)
	require.NotNil(t, created.GroupFormationDeadline)
}

func TestProjectServiceCreateRejectsInvalidMethod(t *testing.T) {
	repo := newMemoryProjectRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewProjectService(repo, validate, testLogger())

	payload := dto.ProjectCreateRequest{
		Name:                 "Operating Systems",
		MinGroupSize:         2,
		MaxGroupSize:         4,
		GroupFormationMethod: "vibes",
	}

	_, err := svc.Create(context.Background(), payload)
	require.Error(t, err)
}

func TestProjectServiceCreateRejectsInvertedSizes(t *testing.T) {
	repo := newMemoryProjectRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewProjectService(repo, validate, testLogger())

	payload := dto.ProjectCreateRequest{
		Name:                 "Operating Systems",
		MinGroupSize:         4,
		MaxGroupSize:         2,
		GroupFormationMethod: "free",
	}

	_, err := svc.Create(context.Background(), payload)
	require.Error(t, err)
}

func TestProjectServiceGetMissing(t *testing.T) {
	repo := newMemoryProjectRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewProjectService(repo, validate, testLogger())

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectServiceSanitizesName(t *testing.T) {
	repo := newMemoryProjectRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewProjectService(repo, validate, testLogger())

	payload := dto.ProjectCreateRequest{
		Name:                 "<script>alert(1)</script>Databases",
		MinGroupSize:         1,
		MaxGroupSize:         2,
		GroupFormationMethod: "manual",
	}

	created, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "Databases", created.Name)
}
