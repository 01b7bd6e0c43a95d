package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/formation"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/observability"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
)

var (
	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrFormationNotAllowed indicates the formation rules reject the
	// mutation: wrong method, closed deadline, or the student already has a
	// group.
	ErrFormationNotAllowed = errors.New("group formation rules do not allow this action")
	// ErrGroupFull indicates the join target is at the configured maximum.
	ErrGroupFull = errors.New("group is already at maximum size")
	// ErrWrongProject indicates the group belongs to another project.
	ErrWrongProject = errors.New("group does not belong to this project")
)

// GroupService exposes the group formation use cases.
type GroupService interface {
	ListByProject(ctx context.Context, projectID uint) ([]dto.GroupResponse, error)
	Get(ctx context.Context, projectID, groupID uint) (dto.GroupResponse, error)
	Actions(ctx context.Context, projectID, studentID uint) (dto.GroupActionsResponse, error)
	Create(ctx context.Context, projectID uint, payload dto.GroupCreateRequest) (dto.GroupResponse, error)
	Join(ctx context.Context, projectID, groupID uint, payload dto.GroupJoinRequest) (dto.GroupResponse, error)
	Leave(ctx context.Context, projectID, groupID uint, payload dto.GroupLeaveRequest) error
}

type groupService struct {
	groups    repository.GroupRepository
	projects  repository.ProjectRepository
	facade    *eligibility.Facade
	realtime  RealtimeService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGroupService builds a new group service.
func NewGroupService(groups repository.GroupRepository, projects repository.ProjectRepository, facade *eligibility.Facade, realtime RealtimeService, validate *validator.Validate, logger zerolog.Logger) GroupService {
	return &groupService{
		groups:    groups,
		projects:  projects,
		facade:    facade,
		realtime:  realtime,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "group_service").Logger(),
		now:       time.Now,
	}
}

func (s *groupService) ListByProject(ctx context.Context, projectID uint) ([]dto.GroupResponse, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groups.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	cfg := project.FormationConfig()
	responses := make([]dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, dto.NewGroupResponse(group, formation.SizeCompliance(cfg, group.Size())))
	}
	return responses, nil
}

func (s *groupService) Get(ctx context.Context, projectID, groupID uint) (dto.GroupResponse, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.group(ctx, projectID, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	cfg := project.FormationConfig()
	return dto.NewGroupResponse(group, formation.SizeCompliance(cfg, group.Size())), nil
}

func (s *groupService) Actions(ctx context.Context, projectID, studentID uint) (dto.GroupActionsResponse, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return dto.GroupActionsResponse{}, err
	}

	actions, err := s.facade.GroupActions(ctx, project.FormationConfig(), projectID, studentID, s.now())
	if err != nil {
		return dto.GroupActionsResponse{}, err
	}

	return dto.GroupActionsResponse{Actions: actions}, nil
}

func (s *groupService) Create(ctx context.Context, projectID uint, payload dto.GroupCreateRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	project, err := s.project(ctx, projectID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	cfg := project.FormationConfig()
	actions, err := s.facade.GroupActions(ctx, cfg, projectID, payload.StudentID, s.now())
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if !actions.CanCreate {
		return dto.GroupResponse{}, ErrFormationNotAllowed
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.GroupResponse{}, errors.New("group name empty after sanitization")
	}

	group := models.Group{
		ProjectID: projectID,
		Name:      name,
		Members: []models.GroupMember{{
			StudentID: payload.StudentID,
			JoinedAt:  s.now(),
		}},
	}

	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	observability.GroupMutationsTotal().WithLabelValues("create").Inc()

	s.realtime.PublishGroupEvent(ctx, GroupEvent{
		Event:      EventGroupCreated,
		ProjectID:  projectID,
		GroupID:    group.ID,
		StudentID:  payload.StudentID,
		OccurredAt: s.now(),
	})

	s.logger.Info().
		Uint("group_id", group.ID).
		Uint("project_id", projectID).
		Uint("student_id", payload.StudentID).
		Msg("group created")

	created, err := s.groups.GetByID(ctx, group.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(created, formation.SizeCompliance(cfg, created.Size())), nil
}

func (s *groupService) Join(ctx context.Context, projectID, groupID uint, payload dto.GroupJoinRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	project, err := s.project(ctx, projectID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.group(ctx, projectID, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	cfg := project.FormationConfig()
	actions, err := s.facade.GroupActions(ctx, cfg, projectID, payload.StudentID, s.now())
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if !actions.CanJoin {
		return dto.GroupResponse{}, ErrFormationNotAllowed
	}

	// Joining is the one formation mutation bounded by capacity.
	if cfg.MaxSize > 0 && group.Size() >= cfg.MaxSize {
		return dto.GroupResponse{}, ErrGroupFull
	}

	member := models.GroupMember{
		GroupID:   group.ID,
		StudentID: payload.StudentID,
		JoinedAt:  s.now(),
	}
	if err := s.groups.AddMember(ctx, &member); err != nil {
		return dto.GroupResponse{}, err
	}

	observability.GroupMutationsTotal().WithLabelValues("join").Inc()

	s.realtime.PublishGroupEvent(ctx, GroupEvent{
		Event:      EventGroupJoined,
		ProjectID:  projectID,
		GroupID:    group.ID,
		StudentID:  payload.StudentID,
		OccurredAt: s.now(),
	})

	s.logger.Info().
		Uint("group_id", group.ID).
		Uint("student_id", payload.StudentID).
		Msg("student joined group")

	joined, err := s.groups.GetByID(ctx, group.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(joined, formation.SizeCompliance(cfg, joined.Size())), nil
}

func (s *groupService) Leave(ctx context.Context, projectID, groupID uint, payload dto.GroupLeaveRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	project, err := s.project(ctx, projectID)
	if err != nil {
		return err
	}

	group, err := s.group(ctx, projectID, groupID)
	if err != nil {
		return err
	}

	if !group.HasMember(payload.StudentID) {
		return eligibility.ErrNotAMember
	}

	cfg := project.FormationConfig()
	actions, err := s.facade.GroupActions(ctx, cfg, projectID, payload.StudentID, s.now())
	if err != nil {
		return err
	}
	if !actions.CanLeave {
		return ErrFormationNotAllowed
	}

	if err := s.groups.RemoveMember(ctx, group.ID, payload.StudentID); err != nil {
		return err
	}

	// An empty group serves no one; drop it with the last member.
	if group.Size() <= 1 {
		if err := s.groups.Delete(ctx, group.ID); err != nil && !repository.IsNotFound(err) {
			return err
		}
	}

	observability.GroupMutationsTotal().WithLabelValues("leave").Inc()

	s.realtime.PublishGroupEvent(ctx, GroupEvent{
		Event:      EventGroupLeft,
		ProjectID:  projectID,
		GroupID:    group.ID,
		StudentID:  payload.StudentID,
		OccurredAt: s.now(),
	})

	s.logger.Info().
		Uint("group_id", group.ID).
		Uint("student_id", payload.StudentID).
		Msg("student left group")

	return nil
}

func (s *groupService) project(ctx context.Context, projectID uint) (models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, ErrProjectNotFound
		}
		return models.Project{}, err
	}
	return project, nil
}

func (s *groupService) group(ctx context.Context, projectID, groupID uint) (models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	if group.ProjectID != projectID {
		return models.Group{}, ErrWrongProject
	}
	return group, nil
}
