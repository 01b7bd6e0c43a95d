package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
)

// ErrProjectNotFound indicates the requested project does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ProjectService exposes project configuration use cases.
type ProjectService interface {
	List(ctx context.Context) ([]dto.ProjectResponse, error)
	Get(ctx context.Context, id uint) (dto.ProjectResponse, error)
	Create(ctx context.Context, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error)
}

type projectService struct {
	repo      repository.ProjectRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProjectService builds a new project service.
func NewProjectService(repo repository.ProjectRepository, validate *validator.Validate, logger zerolog.Logger) ProjectService {
	return &projectService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "project_service").Logger(),
		now:       time.Now,
	}
}

func (s *projectService) List(ctx context.Context) ([]dto.ProjectResponse, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewProjectResponseSlice(projects), nil
}

func (s *projectService) Get(ctx context.Context, id uint) (dto.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}

		return dto.ProjectResponse{}, err
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Create(ctx context.Context, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.ProjectResponse{}, fmt.Errorf("%w: project name empty after sanitization", ErrInvalidConfiguration)
	}

	project := models.Project{
		Name:                 name,
		Description:          strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		MinGroupSize:         payload.MinGroupSize,
		MaxGroupSize:         payload.MaxGroupSize,
		GroupFormationMethod: payload.GroupFormationMethod,
	}

	if payload.GroupFormationDeadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.GroupFormationDeadline)
		if err != nil {
			return dto.ProjectResponse{}, fmt.Errorf("%w: group formation deadline: %v", ErrInvalidConfiguration, err)
		}
		project.GroupFormationDeadline = &deadline
	}

	if err := s.repo.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", project.ID).Msg("project created")

	return dto.NewProjectResponse(project), nil
}
