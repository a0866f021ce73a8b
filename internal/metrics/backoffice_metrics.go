package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result-метки операций.
const (
	ResultSuccess = "success"
)

// BackofficeMetrics содержит метрики движка согласованности заказов.
// Все методы безопасны для nil-получателя: сервисы без метрик просто ничего не пишут.
type BackofficeMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	ordersCreated        prometheus.Counter
	ordersCanceled       *prometheus.CounterVec
	orderLinesRejected   prometheus.Counter
	ticketsOpened        *prometheus.CounterVec
	customersReactivated prometheus.Counter
	outboxEvents         prometheus.Counter
	timelineEvents       prometheus.Counter

	outboxPublishAttempts  *prometheus.CounterVec
	outboxPending          prometheus.Gauge
	outboxOldestPendingAge prometheus.Gauge
}

// NewBackofficeMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewBackofficeMetrics() *BackofficeMetrics {
	return NewBackofficeMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewBackofficeMetricsWithRegisterer регистрирует метрики в заданном registerer.
func NewBackofficeMetricsWithRegisterer(registerer prometheus.Registerer) *BackofficeMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BackofficeMetrics{
		operations: register(registerer, "backoffice_operations_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_operations_total",
			Help: "Total number of domain operations grouped by operation and result kind",
		}, []string{"operation", "result"})),
		operationDuration: register(registerer, "backoffice_operation_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_operation_duration_seconds",
			Help:    "Duration of domain operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"})),
		ordersCreated: register(registerer, "backoffice_orders_created_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_orders_created_total",
			Help: "Total number of orders created",
		})),
		ordersCanceled: register(registerer, "backoffice_orders_canceled_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_orders_canceled_total",
			Help: "Total number of orders canceled grouped by reason",
		}, []string{"reason"})),
		orderLinesRejected: register(registerer, "backoffice_order_lines_rejected_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_order_lines_rejected_total",
			Help: "Total number of order lines rejected because the catalog entry is not for sale",
		})),
		ticketsOpened: register(registerer, "backoffice_tickets_opened_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_tickets_opened_total",
			Help: "Total number of cancellation tickets grouped by initial resolution",
		}, []string{"resolution"})),
		customersReactivated: register(registerer, "backoffice_customers_reactivated_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_customers_reactivated_total",
			Help: "Total number of soft-deleted customers reactivated by signup",
		})),
		outboxEvents: register(registerer, "backoffice_outbox_events_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_outbox_events_total",
			Help: "Total number of domain events enqueued to the outbox",
		})),
		timelineEvents: register(registerer, "backoffice_timeline_events_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_timeline_events_total",
			Help: "Total number of order timeline events recorded",
		})),
		outboxPublishAttempts: register(registerer, "backoffice_outbox_publish_attempts_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"})),
		outboxPending: register(registerer, "backoffice_outbox_pending_records", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backoffice_outbox_pending_records",
			Help: "Current number of pending records in the outbox",
		})),
		outboxOldestPendingAge: register(registerer, "backoffice_outbox_oldest_pending_age_seconds", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backoffice_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		})),
	}
}

// ObserveOperation пишет результат и длительность операции; kind: метка вида ошибки или "ok".
func (m *BackofficeMetrics) ObserveOperation(operation, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	if kind == "ok" {
		kind = ResultSuccess
	}
	m.operations.WithLabelValues(operation, kind).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *BackofficeMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordOrderCanceled увеличивает счётчик отменённых заказов.
func (m *BackofficeMetrics) RecordOrderCanceled(reason string) {
	if m == nil {
		return
	}
	m.ordersCanceled.WithLabelValues(reason).Inc()
}

// RecordLineRejected фиксирует позицию с товаром, снятым с продажи.
func (m *BackofficeMetrics) RecordLineRejected() {
	if m == nil {
		return
	}
	m.orderLinesRejected.Inc()
}

// RecordTicketOpened фиксирует тикет; resolution = "auto_resolved" или "open".
func (m *BackofficeMetrics) RecordTicketOpened(resolution string) {
	if m == nil {
		return
	}
	m.ticketsOpened.WithLabelValues(resolution).Inc()
}

// RecordCustomerReactivated увеличивает счётчик реактиваций.
func (m *BackofficeMetrics) RecordCustomerReactivated() {
	if m == nil {
		return
	}
	m.customersReactivated.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *BackofficeMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *BackofficeMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxPublish считает попытку relay: sent, retry, failed, dead_lettered или dlq_failed.
func (m *BackofficeMetrics) RecordOutboxPublish(result string) {
	if m == nil {
		return
	}
	m.outboxPublishAttempts.WithLabelValues(result).Inc()
}

// SetOutboxBacklog выставляет размер backlog и возраст самого старого сообщения.
func (m *BackofficeMetrics) SetOutboxBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.outboxPending.Set(float64(pending))
	m.outboxOldestPendingAge.Set(oldestAge.Seconds())
}
