package handler

import (
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/lifecycle"
	"github.com/noah-isme/grouplab-go-api/internal/middleware"
	"github.com/noah-isme/grouplab-go-api/internal/service"
	"github.com/noah-isme/grouplab-go-api/internal/utils"
)

// SubmissionHandler wires submission HTTP routes, nested under a deliverable.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group. The group is
// expected to be mounted with a :deliverableID parameter.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Get("/mine", h.mine)
	router.Delete("", h.withdraw)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	deliverableID, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
	}

	var file *multipart.FileHeader
	if header, err := c.FormFile("file"); err == nil {
		file = header
	}

	// Only teachers may push a submission past a closed deadline.
	force := false
	if override, err := strconv.ParseBool(c.FormValue("allow_late_override")); err == nil && override {
		role := userRoleFromContext(c)
		force = role == "teacher" || role == "admin"
	}

	submission, err := h.service.Submit(c.Context(), deliverableID, payload, file, force)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	deliverableID, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByDeliverable(c.Context(), deliverableID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) mine(c *fiber.Ctx) error {
	deliverableID, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintQuery(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	submission, err := h.service.GetForStudent(c.Context(), deliverableID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) withdraw(c *fiber.Ctx) error {
	deliverableID, err := parseUintParam(c, "deliverableID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionWithdrawRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	if err := h.service.Withdraw(c.Context(), deliverableID, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission withdrawn", fiber.Map{"deliverable_id": deliverableID})
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrDeliverableNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "deliverable not found")
	case errors.Is(err, service.ErrSubmissionNotFound), errors.Is(err, lifecycle.ErrNoSubmission):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, lifecycle.ErrDeadlinePassed):
		return utils.SendError(c, fiber.StatusConflict, "deadline has passed")
	case errors.Is(err, eligibility.ErrNotAMember):
		return utils.SendError(c, fiber.StatusConflict, "student is not a group member")
	case errors.Is(err, lifecycle.ErrInvalidPayload), errors.Is(err, service.ErrMissingArchive):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
