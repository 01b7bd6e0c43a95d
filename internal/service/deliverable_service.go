package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
)

var (
	// ErrDeliverableNotFound indicates the requested deliverable does not exist.
	ErrDeliverableNotFound = errors.New("deliverable not found")
	// ErrInvalidConfiguration indicates a malformed project or deliverable
	// payload: bad deadline, bad rule parameters, or an empty title.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DeliverableService exposes deliverable configuration use cases. Rule
// parameters are validated against per-kind JSON Schemas at configuration
// time so evaluation never has to interpret malformed documents.
type DeliverableService interface {
	ListByProject(ctx context.Context, projectID uint) ([]dto.DeliverableResponse, error)
	Get(ctx context.Context, id uint) (dto.DeliverableResponse, error)
	Create(ctx context.Context, projectID uint, payload dto.DeliverableCreateRequest) (dto.DeliverableResponse, error)
	Update(ctx context.Context, id uint, payload dto.DeliverableUpdateRequest) (dto.DeliverableResponse, error)
	Delete(ctx context.Context, id uint) error
}

type deliverableService struct {
	repo      repository.DeliverableRepository
	projects  repository.ProjectRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	schemas   map[string]*jsonschema.Schema
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDeliverableService builds a new deliverable service.
func NewDeliverableService(repo repository.DeliverableRepository, projects repository.ProjectRepository, validate *validator.Validate, logger zerolog.Logger) (DeliverableService, error) {
	schemas, err := compileRuleSchemas()
	if err != nil {
		return nil, err
	}

	return &deliverableService{
		repo:      repo,
		projects:  projects,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		schemas:   schemas,
		logger:    logger.With().Str("component", "deliverable_service").Logger(),
		now:       time.Now,
	}, nil
}

func (s *deliverableService) ListByProject(ctx context.Context, projectID uint) ([]dto.DeliverableResponse, error) {
	deliverables, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return dto.NewDeliverableResponseSlice(deliverables), nil
}

func (s *deliverableService) Get(ctx context.Context, id uint) (dto.DeliverableResponse, error) {
	deliverable, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrDeliverableNotFound
		}

		return dto.DeliverableResponse{}, err
	}

	return dto.NewDeliverableResponse(deliverable), nil
}

func (s *deliverableService) Create(ctx context.Context, projectID uint, payload dto.DeliverableCreateRequest) (dto.DeliverableResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeliverableResponse{}, err
	}

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrProjectNotFound
		}
		return dto.DeliverableResponse{}, err
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.DeliverableResponse{}, fmt.Errorf("%w: deadline: %v", ErrInvalidConfiguration, err)
	}
	if !deadline.After(s.now()) {
		return dto.DeliverableResponse{}, fmt.Errorf("%w: deadline must be in the future", ErrInvalidConfiguration)
	}

	rules, err := s.buildRules(payload.Rules)
	if err != nil {
		return dto.DeliverableResponse{}, err
	}

	deliverable := models.Deliverable{
		ProjectID:           projectID,
		Title:               strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:         strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Kind:                payload.Kind,
		Deadline:            deadline,
		AllowLateSubmission: payload.AllowLateSubmission,
		LatePenaltyPerHour:  payload.LatePenaltyPerHour,
		MaxFileSizeBytes:    payload.MaxFileSizeBytes,
		Rules:               rules,
	}

	if deliverable.Title == "" {
		return dto.DeliverableResponse{}, fmt.Errorf("%w: title empty after sanitization", ErrInvalidConfiguration)
	}

	if len(payload.RequiredFiles) > 0 {
		encoded, err := json.Marshal(payload.RequiredFiles)
		if err != nil {
			return dto.DeliverableResponse{}, fmt.Errorf("failed to encode required files: %w", err)
		}
		deliverable.RequiredFiles = datatypes.JSON(encoded)
	}

	if err := s.repo.Create(ctx, &deliverable); err != nil {
		return dto.DeliverableResponse{}, err
	}

	s.logger.Info().
		Uint("deliverable_id", deliverable.ID).
		Uint("project_id", projectID).
		Int("rules", len(rules)).
		Msg("deliverable created")

	return dto.NewDeliverableResponse(deliverable), nil
}

func (s *deliverableService) Update(ctx context.Context, id uint, payload dto.DeliverableUpdateRequest) (dto.DeliverableResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeliverableResponse{}, err
	}

	deliverable, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrDeliverableNotFound
		}

		return dto.DeliverableResponse{}, err
	}

	if payload.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
		if title == "" {
			return dto.DeliverableResponse{}, fmt.Errorf("%w: title empty after sanitization", ErrInvalidConfiguration)
		}
		deliverable.Title = title
	}

	if payload.Description != nil {
		deliverable.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}

	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.DeliverableResponse{}, fmt.Errorf("%w: deadline: %v", ErrInvalidConfiguration, err)
		}
		deliverable.Deadline = deadline
	}

	if payload.AllowLateSubmission != nil {
		deliverable.AllowLateSubmission = *payload.AllowLateSubmission
	}

	if payload.LatePenaltyPerHour != nil {
		deliverable.LatePenaltyPerHour = *payload.LatePenaltyPerHour
	}

	if payload.MaxFileSizeBytes != nil {
		deliverable.MaxFileSizeBytes = payload.MaxFileSizeBytes
	}

	if payload.RequiredFiles != nil {
		encoded, err := json.Marshal(payload.RequiredFiles)
		if err != nil {
			return dto.DeliverableResponse{}, fmt.Errorf("failed to encode required files: %w", err)
		}
		deliverable.RequiredFiles = datatypes.JSON(encoded)
	}

	if payload.Rules != nil {
		rules, err := s.buildRules(payload.Rules)
		if err != nil {
			return dto.DeliverableResponse{}, err
		}
		if err := s.repo.ReplaceRules(ctx, deliverable.ID, rules); err != nil {
			return dto.DeliverableResponse{}, err
		}
		deliverable.Rules = rules
	}

	if err := s.repo.Update(ctx, &deliverable); err != nil {
		return dto.DeliverableResponse{}, err
	}

	s.logger.Info().Uint("deliverable_id", deliverable.ID).Msg("deliverable updated")

	return dto.NewDeliverableResponse(deliverable), nil
}

func (s *deliverableService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeliverableNotFound
		}
		return err
	}

	s.logger.Info().Uint("deliverable_id", id).Msg("deliverable deleted")
	return nil
}

func (s *deliverableService) buildRules(requests []dto.RuleRequest) ([]models.ValidationRule, error) {
	rules := make([]models.ValidationRule, 0, len(requests))
	for i, request := range requests {
		if err := validateRuleParameters(s.schemas, request.Kind, request.Parameters); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidConfiguration, i, err)
		}

		parameters := request.Parameters
		if len(parameters) == 0 {
			parameters = json.RawMessage("{}")
		}

		rules = append(rules, models.ValidationRule{
			Kind:        request.Kind,
			Parameters:  datatypes.JSON(parameters),
			Description: strings.TrimSpace(s.sanitizer.Sanitize(request.Description)),
			Position:    i,
		})
	}
	return rules, nil
}
