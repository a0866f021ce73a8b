package eventlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
	"github.com/vladislavdragonenkov/backoffice/internal/storage/memory"
)

type failingOutbox struct {
	domain.OutboxRepository
}

func (failingOutbox) Enqueue(context.Context, domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, errors.New("outbox down")
}

func TestRecorderEmitEnqueuesPayload(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewOutboxRepository()
	rec := eventlog.NewRecorder(outbox, nil, nil, nil)

	rec.Emit(ctx, domain.AggregateOrder, 42, domain.EventOrderCreated, map[string]any{"customer_id": 7})

	pending := outbox.AllPending()
	require.Len(t, pending, 1)
	require.Equal(t, "42", pending[0].AggregateID)
	require.Equal(t, domain.EventOrderCreated, pending[0].EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	require.EqualValues(t, 7, payload["customer_id"])
	require.EqualValues(t, 42, payload["aggregate_id"])
}

func TestRecorderTimelineAndHistory(t *testing.T) {
	ctx := context.Background()
	rec := eventlog.NewRecorder(nil, memory.NewTimelineRepository(), nil, nil)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec.Timeline(ctx, 3, domain.TimelineOrderCreated, "", at)
	rec.Timeline(ctx, 3, domain.TimelineOrderCanceled, domain.CancelReasonExplicit, at.Add(time.Minute))

	events, err := rec.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.TimelineOrderCanceled, events[1].Type)
	require.Equal(t, domain.CancelReasonExplicit, events[1].Reason)
}

func TestRecorderIsBestEffort(t *testing.T) {
	ctx := context.Background()
	rec := eventlog.NewRecorder(failingOutbox{}, nil, nil, nil)

	require.NotPanics(t, func() {
		rec.Emit(ctx, domain.AggregateOrder, 1, domain.EventOrderCanceled, nil)
	})

	var nilRec *eventlog.Recorder
	require.NotPanics(t, func() {
		nilRec.Emit(ctx, domain.AggregateOrder, 1, domain.EventOrderCanceled, nil)
		nilRec.Timeline(ctx, 1, domain.TimelineOrderCanceled, "", time.Time{})
	})
	events, err := nilRec.History(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, events)
}
