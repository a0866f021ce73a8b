package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

var errPublisherNotInitialized = errors.New("kafka outbox publisher is not initialized")

// RoutingPublisher публикует outbox-сообщения в topic по типу агрегата.
type RoutingPublisher struct {
	producer *Producer
	route    func(aggregateType string) string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
// route == nil означает маршрутизацию по TopicFor.
func NewOutboxPublisher(producer *Producer, route func(aggregateType string) string) *RoutingPublisher {
	if route == nil {
		route = TopicFor
	}
	return &RoutingPublisher{producer: producer, route: route}
}

// Publish отправляет сообщение с ключом по агрегату, чтобы события одного агрегата шли в одну партицию.
func (p *RoutingPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}
	return p.producer.PublishEvent(ctx, p.route(event.AggregateType), messageKey(event), NewEnvelope(event), map[string]string{
		HeaderEventType: event.EventType,
	})
}

// DLQPublisher отправляет сообщения, исчерпавшие retry, в dead letter topic.
type DLQPublisher struct {
	producer *Producer
	topic    string
	route    func(aggregateType string) string
}

// NewDLQPublisher создаёт паблишер DLQ; пустой topic заменяется TopicDeadLetterQueue.
func NewDLQPublisher(producer *Producer, topic string) *DLQPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	return &DLQPublisher{producer: producer, topic: topic, route: TopicFor}
}

// Publish кладёт сообщение в DLQ с указанием исходного topic.
func (p *DLQPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}
	return p.producer.PublishEvent(ctx, p.topic, messageKey(event), NewEnvelope(event), map[string]string{
		HeaderEventType:     event.EventType,
		HeaderOriginalTopic: p.route(event.AggregateType),
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func messageKey(event domain.OutboxMessage) string {
	if event.AggregateID == "" {
		return event.ID
	}
	return event.AggregateType + ":" + event.AggregateID
}

var (
	_ domain.OutboxPublisher = (*RoutingPublisher)(nil)
	_ domain.OutboxPublisher = (*DLQPublisher)(nil)
)
