package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/archive"
	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/lifecycle"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/observability"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

var (
	// ErrSubmissionNotFound indicates no live submission exists for the pair.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrMissingArchive indicates an archive deliverable was submitted
	// without a file part.
	ErrMissingArchive = errors.New("archive deliverable requires a file")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService exposes the submission use cases: submit (including the
// teacher override), list, inspect and withdraw.
type SubmissionService interface {
	Submit(ctx context.Context, deliverableID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, force bool) (dto.SubmissionResponse, error)
	ListByDeliverable(ctx context.Context, deliverableID uint) ([]dto.SubmissionResponse, error)
	GetForStudent(ctx context.Context, deliverableID, studentID uint) (dto.SubmissionResponse, error)
	Withdraw(ctx context.Context, deliverableID uint, payload dto.SubmissionWithdrawRequest) error
}

type submissionService struct {
	submissions  repository.SubmissionRepository
	deliverables repository.DeliverableRepository
	facade       *eligibility.Facade
	inspector    *archive.Inspector
	uploader     FileUploader
	realtime     RealtimeService
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewSubmissionService builds a new submission service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	deliverables repository.DeliverableRepository,
	facade *eligibility.Facade,
	uploader FileUploader,
	realtime RealtimeService,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:  submissions,
		deliverables: deliverables,
		facade:       facade,
		inspector:    archive.NewInspector(),
		uploader:     uploader,
		realtime:     realtime,
		validator:    validate,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/grouplab-go-api/internal/service/submission"),
		now:          time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, deliverableID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, force bool) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(
		attribute.Int64("deliverable_id", int64(deliverableID)),
		attribute.Int64("student_id", int64(payload.StudentID)),
		attribute.Bool("force", force),
	))
	defer span.End()

	model, err := s.deliverables.GetByID(spanCtx, deliverableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrDeliverableNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	deliverable, err := s.buildDeliverable(model)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	enginePayload, artifact, err := s.buildArtifact(spanCtx, deliverable, payload, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	var result lifecycle.Submission
	if force {
		result, err = s.facade.ForceSubmit(spanCtx, model.ProjectID, payload.StudentID, deliverableID, deliverable, enginePayload, artifact, now)
	} else {
		result, err = s.facade.Submit(spanCtx, model.ProjectID, payload.StudentID, deliverableID, deliverable, enginePayload, artifact, now)
	}
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	record, err := s.persist(spanCtx, result)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsTotal().WithLabelValues(record.Kind, record.ValidationStatus).Inc()
	if record.IsLate {
		observability.LateSubmissionsTotal().Inc()
	}

	s.realtime.Broadcast(spanCtx, SubmissionEvent{
		Event:            EventSubmitted,
		DeliverableID:    record.DeliverableID,
		GroupID:          record.GroupID,
		ValidationStatus: record.ValidationStatus,
		IsLate:           record.IsLate,
		OccurredAt:       record.SubmittedAt,
	})

	s.logger.Info().
		Uint("submission_id", record.ID).
		Uint("deliverable_id", record.DeliverableID).
		Uint("group_id", record.GroupID).
		Str("status", record.ValidationStatus).
		Bool("late", record.IsLate).
		Msg("submission accepted")

	return dto.NewSubmissionResponse(record), nil
}

func (s *submissionService) ListByDeliverable(ctx context.Context, deliverableID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetForStudent(ctx context.Context, deliverableID, studentID uint) (dto.SubmissionResponse, error) {
	model, err := s.deliverables.GetByID(ctx, deliverableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrDeliverableNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	membership, err := s.facade.MembershipFor(ctx, model.ProjectID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByDeliverableAndGroup(ctx, deliverableID, membership.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Withdraw(ctx context.Context, deliverableID uint, payload dto.SubmissionWithdrawRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	model, err := s.deliverables.GetByID(ctx, deliverableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeliverableNotFound
		}
		return err
	}

	membership, err := s.facade.MembershipFor(ctx, model.ProjectID, payload.StudentID)
	if err != nil {
		return err
	}

	submission, err := s.submissions.GetByDeliverableAndGroup(ctx, deliverableID, membership.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lifecycle.ErrNoSubmission
		}
		return err
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		return err
	}

	observability.WithdrawnSubmissionsTotal().Inc()

	s.realtime.Broadcast(ctx, SubmissionEvent{
		Event:         EventWithdrawn,
		DeliverableID: deliverableID,
		GroupID:       membership.GroupID,
		OccurredAt:    s.now(),
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("deliverable_id", deliverableID).
		Uint("group_id", membership.GroupID).
		Msg("submission withdrawn")

	return nil
}

// buildDeliverable converts the stored configuration into the engine's
// view, decoding the ordered rules and folding the deliverable's required
// file list into an implicit presence rule.
func (s *submissionService) buildDeliverable(model models.Deliverable) (lifecycle.Deliverable, error) {
	decoded := make([]rules.Rule, 0, len(model.Rules)+1)
	for _, stored := range model.Rules {
		rule, err := rules.Decode(stored.Kind, stored.Description, stored.Parameters)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Uint("deliverable_id", model.ID).
				Str("kind", stored.Kind).
				Msg("stored rule failed to decode, will fail closed")
		}
		decoded = append(decoded, rule)
	}

	if len(model.RequiredFiles) > 0 {
		var required []string
		if err := json.Unmarshal(model.RequiredFiles, &required); err != nil {
			return lifecycle.Deliverable{}, fmt.Errorf("failed to decode required files: %w", err)
		}
		if len(required) > 0 {
			decoded = append(decoded, rules.Rule{
				Kind:         rules.KindFilePresence,
				Description:  "required files",
				FilePresence: &rules.FilePresenceParams{Paths: required},
			})
		}
	}

	return lifecycle.Deliverable{
		Kind:             rules.ArtifactKind(model.Kind),
		Policy:           model.DeadlinePolicy(),
		MaxFileSizeBytes: model.MaxFileSizeBytes,
		Rules:            decoded,
	}, nil
}

// buildArtifact validates and inspects the incoming payload. Archive
// deliverables require a zip upload; git deliverables take the URL as-is.
func (s *submissionService) buildArtifact(ctx context.Context, deliverable lifecycle.Deliverable, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (lifecycle.Payload, rules.Artifact, error) {
	if deliverable.Kind == rules.ArtifactGit {
		if payload.GitURL == "" {
			return lifecycle.Payload{}, rules.Artifact{}, lifecycle.ErrInvalidPayload
		}
		return lifecycle.Payload{GitURL: payload.GitURL},
			rules.Artifact{Kind: rules.ArtifactGit},
			nil
	}

	if file == nil {
		return lifecycle.Payload{}, rules.Artifact{}, ErrMissingArchive
	}
	if payload.GitURL != "" {
		return lifecycle.Payload{}, rules.Artifact{}, lifecycle.ErrInvalidPayload
	}

	src, err := file.Open()
	if err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	if err := archive.CheckArchiveType(src); err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, fmt.Errorf("failed to rewind file: %w", err)
	}

	artifact, err := s.inspector.Inspect(src, file.Size, excerptPaths(deliverable.Rules))
	if err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, err
	}

	if _, err := src.Seek(0, 0); err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, fmt.Errorf("failed to rewind file: %w", err)
	}
	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return lifecycle.Payload{}, rules.Artifact{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return lifecycle.Payload{
		FilePath: url,
		FileName: file.Filename,
		FileSize: file.Size,
	}, artifact, nil
}

// excerptPaths collects the file paths content rules will inspect.
func excerptPaths(list []rules.Rule) []string {
	var paths []string
	for _, rule := range list {
		if rule.FileContent != nil && rule.FileContent.Path != "" {
			paths = append(paths, rule.FileContent.Path)
		}
	}
	return paths
}

func (s *submissionService) persist(ctx context.Context, result lifecycle.Submission) (models.Submission, error) {
	details, err := json.Marshal(result.Result)
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to encode validation result: %w", err)
	}

	status := models.SubmissionStatusInvalid
	if result.State == lifecycle.StateValid {
		status = models.SubmissionStatusValid
	}

	record := models.Submission{
		DeliverableID:     result.DeliverableID,
		GroupID:           result.GroupID,
		Kind:              string(result.Kind),
		FilePath:          result.Payload.FilePath,
		FileName:          result.Payload.FileName,
		FileSize:          result.Payload.FileSize,
		GitURL:            result.Payload.GitURL,
		SubmittedAt:       result.SubmittedAt,
		IsLate:            result.Assessment.IsLate,
		HoursLate:         result.Assessment.HoursLate,
		PenaltyPoints:     result.Assessment.PenaltyPoints,
		ValidationStatus:  status,
		ValidationDetails: datatypes.JSON(details),
	}

	if err := s.submissions.Replace(ctx, &record); err != nil {
		return models.Submission{}, err
	}

	// Reload so the response carries the group association.
	return s.submissions.GetByID(ctx, record.ID)
}
