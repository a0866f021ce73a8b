package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestTopicFor(t *testing.T) {
	tests := map[string]string{
		domain.AggregateOrder:    TopicOrderEvents,
		domain.AggregateCustomer: TopicCustomerEvents,
		domain.AggregateAddress:  TopicCustomerEvents,
		domain.AggregateTicket:   TopicTicketEvents,
		domain.AggregateCatalog:  TopicCatalogEvents,
		"unknown":                TopicOrderEvents,
	}
	for aggregate, topic := range tests {
		require.Equal(t, topic, TopicFor(aggregate), aggregate)
	}
}

func TestOutboxPublisher_RoutesByAggregate(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicTicketEvents, msg.Topic)
		require.Equal(t, domain.EventTicketOpened, headerValue(msg, HeaderEventType))

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		var envelope Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		require.Equal(t, "outbox-1", envelope.ID)
		require.JSONEq(t, `{"order_id":7}`, string(envelope.Payload))
		return nil
	})

	publisher := NewOutboxPublisher(newProducer(mockProducer), nil)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateTicket,
		AggregateID:   "3",
		EventType:     domain.EventTicketOpened,
		Payload:       []byte(`{"order_id":7}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(newProducer(mockProducer), nil)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "9",
		EventType:     domain.EventOrderCanceled,
	})
	require.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestDLQPublisher_SetsOriginalTopic(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicDeadLetterQueue, msg.Topic)
		require.Equal(t, TopicCustomerEvents, headerValue(msg, HeaderOriginalTopic))
		require.NotEmpty(t, headerValue(msg, HeaderFailedAt))
		return nil
	})

	publisher := NewDLQPublisher(newProducer(mockProducer), "")
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-3",
		AggregateType: domain.AggregateCustomer,
		AggregateID:   "1",
		EventType:     domain.EventCustomerDeleted,
		Payload:       []byte(`{}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	require.Error(t, NewOutboxPublisher(nil, nil).Publish(context.Background(), domain.OutboxMessage{ID: "outbox-4"}))
	require.Error(t, NewDLQPublisher(nil, "").Publish(context.Background(), domain.OutboxMessage{ID: "outbox-5"}))
}
