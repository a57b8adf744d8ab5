package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"pairchat/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TransportConfig holds the WebSocket timing and size limits.
type TransportConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	ReadLimit  int64
	SendBuffer int
}

// DefaultTransportConfig mirrors the config defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		ReadLimit:  65536,
		SendBuffer: 256,
	}
}

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	ConnectionID string
	Conn         *websocket.Conn
	Hub          *ManagerService
	Send         chan models.Envelope
	Transport    TransportConfig

	closeOnce sync.Once
}

func NewWebSocketClient(id string, conn *websocket.Conn, hub *ManagerService, transport TransportConfig) *WebSocketClient {
	return &WebSocketClient{
		ConnectionID: id,
		Conn:         conn,
		Hub:          hub,
		Send:         make(chan models.Envelope, transport.SendBuffer),
		Transport:    transport,
	}
}

func (c *WebSocketClient) GetConnectionID() string                { return c.ConnectionID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump send a close frame and exit.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Transport.ReadLimit)
	c.Conn.SetReadDeadline(time.Now().Add(c.Transport.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Transport.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "ws").Str("conn", c.ConnectionID).Msg("read error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			log.Warn().Err(err).Str("module", "ws").Str("conn", c.ConnectionID).Msg("dropping malformed frame")
			continue
		}

		if !c.Hub.Submit(models.Inbound{ConnectionID: c.ConnectionID, Envelope: env}) {
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.Transport.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Transport.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				log.Warn().Err(err).Str("module", "ws").Str("conn", c.ConnectionID).Msg("write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Transport.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
