package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
	"github.com/noah-isme/grouplab-go-api/pkg/similarity"
)

// Comparator requests pairwise similarity scores from the remote service.
type Comparator interface {
	Compare(ctx context.Context, deliverableID uint) (similarity.Report, error)
}

// SimilarityService serves similarity reports for a deliverable, caching
// results in Redis and persisting each generated report.
type SimilarityService interface {
	Report(ctx context.Context, deliverableID uint, refresh bool) (dto.SimilarityReportResponse, error)
}

type similarityService struct {
	reports    repository.SimilarityReportRepository
	comparator Comparator
	cache      *redis.Client
	cacheTTL   time.Duration
	threshold  float64
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewSimilarityService builds a new similarity service. threshold is the
// score at or above which a pair is flagged suspicious.
func NewSimilarityService(reports repository.SimilarityReportRepository, comparator Comparator, cache *redis.Client, ttl time.Duration, threshold float64, logger zerolog.Logger) SimilarityService {
	return &similarityService{
		reports:    reports,
		comparator: comparator,
		cache:      cache,
		cacheTTL:   ttl,
		threshold:  threshold,
		logger:     logger.With().Str("component", "similarity_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/grouplab-go-api/internal/service/similarity"),
		now:        time.Now,
	}
}

func (s *similarityService) Report(ctx context.Context, deliverableID uint, refresh bool) (dto.SimilarityReportResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "similarity.report", trace.WithAttributes(
		attribute.Int64("deliverable_id", int64(deliverableID)),
		attribute.Bool("refresh", refresh),
	))
	defer span.End()

	cacheKey := fmt.Sprintf("grouplab:similarity:%d", deliverableID)

	if !refresh && s.cache != nil {
		if cached, err := s.cache.Get(spanCtx, cacheKey).Result(); err == nil {
			var response dto.SimilarityReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("deliverable_id", deliverableID).Msg("similarity cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read similarity cache")
		}
	}

	if !refresh {
		stored, err := s.reports.GetLatestByDeliverable(spanCtx, deliverableID)
		if err == nil {
			response := dto.NewSimilarityReportResponse(stored)
			s.store(spanCtx, cacheKey, response)
			return response, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			return dto.SimilarityReportResponse{}, err
		}
	}

	report, err := s.comparator.Compare(spanCtx, deliverableID)
	if err != nil {
		span.RecordError(err)
		return dto.SimilarityReportResponse{}, err
	}

	model := models.SimilarityReport{
		DeliverableID: deliverableID,
		Threshold:     s.threshold,
		GeneratedAt:   s.now(),
	}
	for _, pair := range report.Pairs {
		model.Pairs = append(model.Pairs, models.SimilarityPair{
			GroupAID: pair.GroupAID,
			GroupBID: pair.GroupBID,
			Score:    pair.Score,
		})
	}

	if err := s.reports.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.SimilarityReportResponse{}, err
	}

	s.logger.Info().
		Uint("deliverable_id", deliverableID).
		Int("pairs", len(model.Pairs)).
		Msg("similarity report generated")

	response := dto.NewSimilarityReportResponse(model)
	s.store(spanCtx, cacheKey, response)
	return response, nil
}

func (s *similarityService) store(ctx context.Context, key string, response dto.SimilarityReportResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store similarity cache")
	}
}
