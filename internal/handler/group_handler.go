package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/service"
	"github.com/noah-isme/grouplab-go-api/internal/utils"
)

// GroupHandler wires group formation HTTP routes, nested under a project.
type GroupHandler struct {
	service service.GroupService
	logger  zerolog.Logger
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(service service.GroupService, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		service: service,
		logger:  logger.With().Str("component", "group_handler").Logger(),
	}
}

// Register attaches group endpoints to the router group. The group is
// expected to be mounted with a :projectID parameter.
func (h *GroupHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/actions", h.actions)
	router.Get("/:groupID", h.get)
	router.Post("", h.create)
	router.Post("/:groupID/join", h.join)
	router.Post("/:groupID/leave", h.leave)
}

func (h *GroupHandler) list(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groups, err := h.service.ListByProject(c.Context(), projectID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "groups retrieved", groups)
}

func (h *GroupHandler) actions(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintQuery(c, "student_id")
	if err != nil || studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id required")
	}

	actions, err := h.service.Actions(c.Context(), projectID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group actions evaluated", actions)
}

func (h *GroupHandler) get(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	group, err := h.service.Get(c.Context(), projectID, groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group retrieved", group)
}

func (h *GroupHandler) create(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.service.Create(c.Context(), projectID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group created", group)
}

func (h *GroupHandler) join(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupJoinRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.service.Join(c.Context(), projectID, groupID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group joined", group)
}

func (h *GroupHandler) leave(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupLeaveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Leave(c.Context(), projectID, groupID, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group left", fiber.Map{"group_id": groupID})
}

func (h *GroupHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrWrongProject):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrFormationNotAllowed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGroupFull):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, eligibility.ErrNotAMember):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
