package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/metrics"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
)

// SubjectPrefix is the root of the transfer event subject hierarchy.
// Full subjects are "<prefix>.<direction>.<stage>".
const SubjectPrefix = "bridge.transfer"

// TransferEvent is the wire form of one state transition.
type TransferEvent struct {
	TransactionID string    `json:"transaction_id"`
	Direction     string    `json:"direction"`
	Status        string    `json:"status"`
	Stage         string    `json:"stage"`
	Message       string    `json:"message"`
	SourceTxHash  string    `json:"source_tx_hash"`
	ProofHash     string    `json:"proof_hash,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NATSPublisher fans transfer transitions out over NATS. Publishing is
// best effort: a failed publish is logged and counted, never retried, and
// never propagated back into the state machine.
type NATSPublisher struct {
	conn *nats.Conn
	log  *logrus.Entry
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{
		conn: conn,
		log:  logrus.WithField("service", "nats_publisher"),
	}, nil
}

// NotifyTransactionUpdate publishes one transition.
func (p *NATSPublisher) NotifyTransactionUpdate(tx *models.BridgeTransaction, event *models.TransactionEvent) {
	payload := TransferEvent{
		TransactionID: tx.ID,
		Direction:     string(tx.Direction),
		Status:        string(tx.Status),
		Stage:         event.Stage,
		Message:       event.Message,
		SourceTxHash:  tx.SourceTxHash,
		ProofHash:     tx.ProofHash,
		OccurredAt:    event.CreatedAt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).Error("Failed to encode transfer event")
		return
	}

	subject := fmt.Sprintf("%s.%s.%s", SubjectPrefix, tx.Direction, event.Stage)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.WithError(err).WithField("subject", subject).Warn("Failed to publish transfer event")
		return
	}
	metrics.NATSEventsPublished.WithLabelValues(event.Stage).Inc()
}

// Close drains the connection so queued publishes flush before shutdown.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.WithError(err).Warn("Failed to drain NATS connection")
	}
}
