package handler

import (
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/repository/memory"
	internalWS "document-hub-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UploadStreamHandler streams upload results of a workspace session over a websocket.
type UploadStreamHandler struct {
	hub       *internalWS.Hub
	sessions  *memory.SessionRepository
	jwtSecret string
	logger    logger.ILogger
}

func NewUploadStreamHandler(hub *internalWS.Hub, sessions *memory.SessionRepository, jwtSecret string, log logger.ILogger) *UploadStreamHandler {
	return &UploadStreamHandler{
		hub:       hub,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake and upgrades the connection.
// Browsers cannot set headers on a websocket handshake, so the token is
// usually passed as ?token=.
func (h *UploadStreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.TokenFromRequest(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized,
			"Missing token (Query 'token' or Header 'Authorization')"))
	}

	sessionID, err := serverutils.ParseSessionToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("UploadStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if _, ok := h.sessions.Get(sessionID.String()); !ok {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound,
			"Workspace session not found or expired"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("UploadStreamHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("UploadStreamHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *UploadStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/workspace/v1/ws", h.ServeWs)
}
