package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/metrics"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 45 * time.Second
	wsSendBufferSize = 32
)

// TransferUpdate is the message pushed to websocket subscribers on every
// state transition.
type TransferUpdate struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	Direction     string    `json:"direction"`
	Status        string    `json:"status"`
	Stage         string    `json:"stage"`
	Message       string    `json:"message"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	// txFilter restricts delivery to one transaction id; empty receives all.
	txFilter string
}

// WebSocketPushService fans transfer updates out to connected websocket
// clients. A slow client gets disconnected rather than blocking delivery
// to the others.
type WebSocketPushService struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
	log     *logrus.Entry

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewWebSocketPushService() *WebSocketPushService {
	return &WebSocketPushService{
		clients:  make(map[*wsClient]bool),
		log:      logrus.WithField("service", "websocket_push"),
		stopChan: make(chan struct{}),
	}
}

// Register adopts an upgraded connection. txFilter may be empty to receive
// updates for every transfer. The service owns the connection from here on.
func (s *WebSocketPushService) Register(conn *websocket.Conn, txFilter string) {
	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		txFilter: txFilter,
	}

	s.mu.Lock()
	s.clients[client] = true
	count := len(s.clients)
	s.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(count))

	s.log.WithFields(logrus.Fields{
		"tx_filter": txFilter,
		"clients":   count,
	}).Info("WebSocket client connected")

	go s.writeLoop(client)
	go s.readLoop(client)
}

// NotifyTransactionUpdate implements the orchestrator's notifier.
func (s *WebSocketPushService) NotifyTransactionUpdate(tx *models.BridgeTransaction, event *models.TransactionEvent) {
	update := TransferUpdate{
		Type:          "transfer_update",
		TransactionID: tx.ID,
		Direction:     string(tx.Direction),
		Status:        string(tx.Status),
		Stage:         event.Stage,
		Message:       event.Message,
		ErrorMessage:  tx.ErrorMessage,
		OccurredAt:    event.CreatedAt,
	}
	data, err := json.Marshal(update)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode transfer update")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if client.txFilter != "" && client.txFilter != tx.ID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Send buffer full, drop the client.
			s.removeLocked(client)
		}
	}
}

// Stop disconnects every client.
func (s *WebSocketPushService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		s.removeLocked(client)
	}
}

func (s *WebSocketPushService) removeLocked(client *wsClient) {
	if !s.clients[client] {
		return
	}
	delete(s.clients, client)
	close(client.send)
	metrics.WebSocketConnections.Set(float64(len(s.clients)))
}

func (s *WebSocketPushService) remove(client *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(client)
}

func (s *WebSocketPushService) writeLoop(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.remove(client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(client)
				return
			}
		case <-s.stopChan:
			return
		}
	}
}

// readLoop discards inbound frames; it exists to process control messages
// and to detect the peer going away.
func (s *WebSocketPushService) readLoop(client *wsClient) {
	defer func() {
		s.remove(client)
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
