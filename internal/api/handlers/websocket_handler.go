package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/easymo/marketplace-core/pkg/logger"
	"github.com/easymo/marketplace-core/pkg/websocket"
)

// HandleWebSocket handles GET /v1/ws
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	userID := c.Query("user_id")
	clientType := c.Query("client_type")

	if userID == "" || clientType == "" {
		h.Logger.Warn("Missing user_id or client_type in WebSocket connection")
		conn.Close()
		return
	}

	client := websocket.NewClient(h.Hub, conn, userID, clientType, h.Logger)
	h.Hub.Register(client)

	// Vendor clients start subscribed to their own quote events
	if clientType == "vendor" {
		if vendorID := c.Query("vendor_id"); vendorID != "" {
			client.Subscribe(vendorID)
		}
	}

	go client.WritePump()
	go client.ReadPump()
}
