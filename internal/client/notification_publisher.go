package client

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/orbiterp/be-approvals/internal/approval"
)

// NotificationPublisher publishes approval events to NATS for the
// notifications service.
//
// Subject convention: notifications.erp.<event_type>
// Event types: document_approved, document_rejected, document_paid,
//              report_acknowledged
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so notification failures never interrupt an approval.
type NotificationPublisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	DocumentType string         `json:"document_type"`
	DocumentID   string         `json:"document_id"`
	ActorID      string         `json:"actor_id"`
	Recipients   []string       `json:"recipients,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS
// connection. nc may be nil, in which case publishing is a no-op.
func NewNotificationPublisher(nc *nats.Conn, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nc: nc, log: log}
}

// PublishDocumentEvent publishes one approval event.
func (p *NotificationPublisher) PublishDocumentEvent(eventType string, docType approval.DocType, docID, actorID string, recipients []string, payload map[string]any) {
	if p.nc == nil {
		return
	}

	event := &NotificationEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		DocumentType: string(docType),
		DocumentID:   docID,
		ActorID:      actorID,
		Recipients:   recipients,
		Payload:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.erp.%s", eventType)
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("document_id", docID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("document_id", docID).
		Msg("notification: event published")
}
