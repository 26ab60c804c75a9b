package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/services"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer; the websocket endpoint is a
	// public read-only feed.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocketHandler upgrades connections onto the transfer update feed.
type WebSocketHandler struct {
	push *services.WebSocketPushService
}

func NewWebSocketHandler(push *services.WebSocketPushService) *WebSocketHandler {
	return &WebSocketHandler{push: push}
}

// Subscribe handles GET /ws. An optional transaction_id query parameter
// narrows the feed to a single transfer.
func (h *WebSocketHandler) Subscribe(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	h.push.Register(conn, c.Query("transaction_id"))
}
