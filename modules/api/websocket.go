package api

import (
	"log"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/modules/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ClientHub is the part of broadcast.Hub the websocket endpoint uses.
type ClientHub interface {
	Register(client *broadcast.Client)
	Unregister(client *broadcast.Client)
}

// WebSocketAuth accepts only upgrade requests carrying a valid access token
// in the token query parameter.
func WebSocketAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// HandleWebSocket joins the connection to its user's room and keeps it
// until the client goes away. Incoming frames are ignored.
func HandleWebSocket(hub ClientHub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		claims, ok := conn.Locals(UserContextKey).(*domain.Claims)
		if !ok {
			_ = conn.Close()
			return
		}

		client := &broadcast.Client{
			ID:     uuid.NewString(),
			UserID: claims.UserID,
			Conn:   conn,
		}
		hub.Register(client)
		defer func() {
			hub.Unregister(client)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[api] WebSocket error for user %s: %v", claims.UserID, err)
				}
				return
			}
		}
	}
}
