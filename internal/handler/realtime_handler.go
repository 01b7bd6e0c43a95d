package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/service"
)

// RealtimeHandler upgrades websocket clients and streams submission events
// for the deliverable they subscribe to.
type RealtimeHandler struct {
	service service.RealtimeService
	logger  zerolog.Logger
}

// NewRealtimeHandler constructs the handler.
func NewRealtimeHandler(service service.RealtimeService, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		service: service,
		logger:  logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/submissions", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/submissions", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	raw := strings.TrimSpace(conn.Query("deliverable_id"))
	deliverableID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || deliverableID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "deliverable_id required"))
		return
	}

	events, cancel := h.service.Subscribe(uint(deliverableID))
	defer cancel()

	h.logger.Info().Uint64("deliverable_id", deliverableID).Msg("submission stream connected")

	// Drain client frames so close and ping control messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Uint64("deliverable_id", deliverableID).Msg("submission stream write failed")
				return
			}
		case <-done:
			h.logger.Info().Uint64("deliverable_id", deliverableID).Msg("submission stream disconnected")
			return
		}
	}
}
