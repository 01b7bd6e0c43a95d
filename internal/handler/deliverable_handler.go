package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/middleware"
	"github.com/noah-isme/grouplab-go-api/internal/service"
	"github.com/noah-isme/grouplab-go-api/internal/utils"
)

// DeliverableHandler wires deliverable configuration HTTP routes.
type DeliverableHandler struct {
	service service.DeliverableService
	logger  zerolog.Logger
}

// NewDeliverableHandler constructs the handler.
func NewDeliverableHandler(service service.DeliverableService, logger zerolog.Logger) *DeliverableHandler {
	return &DeliverableHandler{
		service: service,
		logger:  logger.With().Str("component", "deliverable_handler").Logger(),
	}
}

// RegisterProjectScoped attaches list/create endpoints under a project.
// Mutation requires the teacher role.
func (h *DeliverableHandler) RegisterProjectScoped(router fiber.Router) {
	router.Get("", h.listByProject)
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

// Register attaches deliverable endpoints addressed by their own id.
func (h *DeliverableHandler) Register(router fiber.Router) {
	router.Get("/:deliverableID", h.get)
	router.Patch("/:deliverableID", middleware.WithAuth(h.update, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Delete("/:deliverableID", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

func (h *DeliverableHandler) listByProject(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deliverables, err := h.service.ListByProject(c.Context(), projectID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deliverables retrieved", deliverables)
}

func (h *DeliverableHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deliverable, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deliverable retrieved", deliverable)
}

func (h *DeliverableHandler) create(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DeliverableCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deliverable, err := h.service.Create(c.Context(), projectID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "deliverable created", deliverable)
}

func (h *DeliverableHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DeliverableUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deliverable, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deliverable updated", deliverable)
}

func (h *DeliverableHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deliverable deleted", fiber.Map{"id": id})
}

func (h *DeliverableHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrDeliverableNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "deliverable not found")
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrInvalidConfiguration):
		// Schema violations and malformed deadlines are configuration
		// errors, not server faults.
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
