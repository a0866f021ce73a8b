// Package eventlog записывает побочные эффекты доменных операций:
// события в transactional outbox и записи timeline заказа.
// Запись best-effort: сбои логируются и не прерывают операцию.
package eventlog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
)

// Recorder пишет события в outbox и timeline. nil-Recorder ничего не делает.
type Recorder struct {
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	metrics  *metrics.BackofficeMetrics
	logger   *log.Entry
}

// NewRecorder создаёт Recorder. Любое из хранилищ может быть nil.
func NewRecorder(
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	m *metrics.BackofficeMetrics,
	logger *log.Entry,
) *Recorder {
	if logger == nil {
		logger = log.WithField("component", "eventlog")
	}
	return &Recorder{
		outbox:   outbox,
		timeline: timeline,
		metrics:  m,
		logger:   logger,
	}
}

// Emit ставит доменное событие в outbox.
func (r *Recorder) Emit(ctx context.Context, aggregateType string, aggregateID int64, eventType string, payload map[string]any) {
	if r == nil || r.outbox == nil {
		return
	}

	if payload == nil {
		payload = make(map[string]any)
	}
	payload["aggregate_id"] = aggregateID
	payload["event_type"] = eventType
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"event":          eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   strconv.FormatInt(aggregateID, 10),
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := r.outbox.Enqueue(ctx, msg); err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"event":          eventType,
		}).Warn("enqueue event failed")
		return
	}
	r.metrics.RecordOutboxEvent()
}

// Timeline добавляет событие в историю заказа.
func (r *Recorder) Timeline(ctx context.Context, orderID int64, eventType, reason string, occurred time.Time) {
	if r == nil || r.timeline == nil {
		return
	}
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := r.timeline.Append(ctx, event); err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("append timeline event failed")
		return
	}
	r.metrics.RecordTimelineEvent()
}

// History возвращает timeline заказа.
func (r *Recorder) History(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	if r == nil || r.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return r.timeline.List(ctx, orderID)
}
