package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "backoffice.order.events"
	TopicCustomerEvents  = "backoffice.customer.events"
	TopicTicketEvents    = "backoffice.ticket.events"
	TopicCatalogEvents   = "backoffice.catalog.events"
	TopicDeadLetterQueue = "backoffice.dlq" // Dead Letter Queue для неотправленных событий
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderOriginalTopic = "x-original-topic"
	HeaderFailedAt      = "x-failed-at"
)

// TopicFor возвращает topic для типа агрегата; адреса публикуются вместе с клиентами.
func TopicFor(aggregateType string) string {
	switch aggregateType {
	case domain.AggregateCustomer, domain.AggregateAddress:
		return TopicCustomerEvents
	case domain.AggregateTicket:
		return TopicTicketEvents
	case domain.AggregateCatalog:
		return TopicCatalogEvents
	default:
		return TopicOrderEvents
	}
}

// Envelope: формат сообщения в Kafka.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEnvelope оборачивает outbox-сообщение.
func NewEnvelope(msg domain.OutboxMessage) Envelope {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		PublishedAt:   time.Now().UTC(),
	}
}
