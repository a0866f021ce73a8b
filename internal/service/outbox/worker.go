// Package outbox доставляет доменные события бэк-офиса из transactional outbox
// во внешний брокер. Сообщение, не доставленное за maxAttempts попыток,
// помечается failed и уходит в dead letter topic.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond

	// maxRetryDelay ограничивает паузу между попытками внутри одного цикла.
	maxRetryDelay = 5 * time.Second
)

// Результаты попыток relay для метрик.
const (
	attemptSent         = "sent"
	attemptRetry        = "retry"
	attemptFailed       = "failed"
	attemptDeadLettered = "dead_lettered"
	attemptDLQFailed    = "dlq_failed"
)

// Option настраивает Worker.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m *metrics.BackofficeMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithDLQPublisher задаёт получателя сообщений, исчерпавших попытки.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) {
		if attempts > 0 {
			w.maxAttempts = attempts
		}
	}
}

// WithRetryBaseDelay задаёт первую паузу; каждая следующая вдвое длиннее, но не больше maxRetryDelay.
// Ноль отключает паузы.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay >= 0 {
			w.retryBaseDelay = delay
		}
	}
}

// WithClock подменяет часы для возраста backlog и отметки отправки в DLQ.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker публикует pending-сообщения outbox в порядке постановки.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher

	metrics *metrics.BackofficeMetrics
	logger  *log.Entry
	now     func() time.Time

	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewWorker создаёт relay поверх repo и publisher.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, opts ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	return w
}

// Run опрашивает outbox каждые pollInterval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Result подводит итог одного цикла.
// DeadLettered входит в Failed: это сообщения, которые удалось переложить в DLQ.
type Result struct {
	Sent         int
	Failed       int
	DeadLettered int
}

// ProcessOnce забирает до batchSize сообщений и пытается доставить каждое.
func (w *Worker) ProcessOnce(ctx context.Context) (res Result) {
	if ctx.Err() != nil {
		return res
	}

	batch, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return res
	}
	defer w.observeBacklog(ctx)

	for _, msg := range batch {
		if ctx.Err() != nil {
			break
		}
		fields := log.Fields{
			"outbox_id":      msg.ID,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
			"event_type":     msg.EventType,
		}

		publishErr := w.deliver(ctx, msg)
		if publishErr == nil {
			if err := w.repo.MarkSent(ctx, msg.ID); err != nil {
				w.logger.WithError(err).WithFields(fields).Warn("failed to mark outbox message as sent")
			}
			res.Sent++
			continue
		}
		if ctx.Err() != nil {
			// Отмена посреди ретраев: сообщение остаётся pending до следующего запуска.
			break
		}

		w.logger.WithError(publishErr).WithFields(fields).Error("outbox message undeliverable")
		w.metrics.RecordOutboxPublish(attemptFailed)
		res.Failed++
		if w.deadLetter(ctx, msg, publishErr, fields) {
			res.DeadLettered++
		}
		if err := w.repo.MarkFailed(ctx, msg.ID); err != nil {
			w.logger.WithError(err).WithFields(fields).Warn("failed to mark outbox message as failed")
		}
	}

	if res != (Result{}) {
		w.logger.WithFields(log.Fields{
			"sent":          res.Sent,
			"failed":        res.Failed,
			"dead_lettered": res.DeadLettered,
		}).Debug("outbox batch processed")
	}
	return res
}

// deliver публикует сообщение, повторяя до maxAttempts раз с растущей паузой.
func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if lastErr = w.publisher.Publish(ctx, msg); lastErr == nil {
			w.metrics.RecordOutboxPublish(attemptSent)
			return nil
		}
		w.metrics.RecordOutboxPublish(attemptRetry)
		if attempt == w.maxAttempts {
			break
		}
		if delay := w.retryBackoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", domain.ErrOutboxPublish, w.maxAttempts, lastErr)
}

// retryBackoff возвращает паузу после неудачной попытки attempt (с единицы).
func (w *Worker) retryBackoff(attempt int) time.Duration {
	delay := w.retryBaseDelay
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

// deadLetter кладёт исходное сообщение с причиной отказа в DLQ.
func (w *Worker) deadLetter(ctx context.Context, msg domain.OutboxMessage, cause error, fields log.Fields) bool {
	if w.dlq == nil {
		return false
	}

	payload, err := json.Marshal(map[string]any{
		"outbox_id":        msg.ID,
		"aggregate_type":   msg.AggregateType,
		"aggregate_id":     msg.AggregateID,
		"event_type":       msg.EventType,
		"payload":          json.RawMessage(msg.Payload),
		"publish_error":    cause.Error(),
		"dlq_published_at": w.now().UTC().Format(time.RFC3339Nano),
	})
	if err == nil {
		dead := msg
		dead.Payload = payload
		err = w.dlq.Publish(ctx, dead)
	}
	if err != nil {
		w.logger.WithError(err).WithFields(fields).Warn("failed to dead-letter outbox message")
		w.metrics.RecordOutboxPublish(attemptDLQFailed)
		return false
	}
	w.metrics.RecordOutboxPublish(attemptDeadLettered)
	return true
}

func (w *Worker) observeBacklog(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	var age time.Duration
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		age = w.now().Sub(stats.OldestPendingAt)
	}
	w.metrics.SetOutboxBacklog(stats.PendingCount, age)
}
