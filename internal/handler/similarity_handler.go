package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/service"
	"github.com/noah-isme/grouplab-go-api/internal/utils"
)

// SimilarityHandler exposes cross-group similarity reports for a deliverable.
type SimilarityHandler struct {
	service service.SimilarityService
	logger  zerolog.Logger
}

// NewSimilarityHandler constructs the handler.
func NewSimilarityHandler(service service.SimilarityService, logger zerolog.Logger) *SimilarityHandler {
	return &SimilarityHandler{
		service: service,
		logger:  logger.With().Str("component", "similarity_handler").Logger(),
	}
}

// Register attaches the similarity endpoint to the router group. The group
// is expected to be mounted with a :deliverableID parameter and a role guard
// limiting access to teaching staff.
func (h *SimilarityHandler) Register(router fiber.Router) {
	router.Get("", h.report)
}

func (h *SimilarityHandler) report(c *fiber.Ctx) error {
	deliverableID, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	refresh := parseBoolQuery(c, "refresh")

	report, err := h.service.Report(c.Context(), deliverableID, refresh)
	if err != nil {
		h.logger.Error().Err(err).Uint("deliverable_id", deliverableID).Msg("similarity report failed")
		return utils.SendError(c, fiber.StatusBadGateway, "similarity report unavailable")
	}

	return utils.SendSuccess(c, "similarity report retrieved", report)
}
