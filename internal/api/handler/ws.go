package handler

import (
	"errors"
	"net/http"

	"pairchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may connect; the code is the only identity.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and hands the connection to the hub.
// An optional ?ticket= restores the code it was issued for.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	var code string
	if ticket := c.Query("ticket"); ticket != "" {
		var err error
		code, err = h.Tickets.Validate(ticket)
		if err != nil {
			log.Warn().Err(err).Str("module", "api").Msg("rejecting websocket ticket")
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalidTicket) {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "Invalid or expired ticket"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Warn().Err(err).Str("module", "api").Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(uuid.NewString(), conn, h.Hub, h.Transport)
	if !h.Hub.Register(chathub.Registration{Client: client, Code: code}) {
		conn.Close()
		return
	}
	client.Run()
}
