// Package ticket обрабатывает запросы клиентов на отмену заказов.
// Тикет, открытый в течение двух часов после оформления заказа, сразу
// отменяет заказ; более поздний тикет ждёт решения оператора.
package ticket

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
)

const (
	defaultPageSize         = 4
	defaultCustomerPageSize = 10

	resolutionAuto = "auto_resolved"
	resolutionOpen = "open"
)

// OrderCanceller: часть сервиса заказов, нужная тикетам.
type OrderCanceller interface {
	Get(ctx context.Context, id int64) (domain.Order, error)
	Cancel(ctx context.Context, id int64, reason string) error
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.BackofficeMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRecorder подключает запись доменных событий и timeline.
func WithRecorder(rec *eventlog.Recorder) Option {
	return func(s *Service) { s.events = rec }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPageSize переопределяет размеры страниц обоих листингов.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
			s.customerPageSize = size
		}
	}
}

// Service: операции над тикетами отмены.
type Service struct {
	tickets domain.TicketRepository
	orders  OrderCanceller

	events  *eventlog.Recorder
	metrics *metrics.BackofficeMetrics
	logger  *log.Entry
	now     func() time.Time

	pageSize         int
	customerPageSize int
}

// New создаёт сервис тикетов.
func New(tickets domain.TicketRepository, orders OrderCanceller, opts ...Option) *Service {
	s := &Service{
		tickets:          tickets,
		orders:           orders,
		now:              func() time.Time { return time.Now().UTC() },
		pageSize:         defaultPageSize,
		customerPageSize: defaultCustomerPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "ticket-service")
	}
	return s
}

// Create открывает тикет на отмену заказа orderID.
// pathOrderID: идентификатор из маршрута запроса; расхождение с orderID даёт NotFound.
// У заказа может быть только один неудалённый тикет, повтор даёт AlreadyExists.
func (s *Service) Create(ctx context.Context, message string, orderID, pathOrderID int64) (created domain.Ticket, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("ticket.create", domain.ErrorKind(err), time.Since(start)) }()

	draft := domain.Ticket{Message: message}
	if err := draft.Validate(); err != nil {
		return domain.Ticket{}, err
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if order.ID != pathOrderID {
		return domain.Ticket{}, domain.NotFound(domain.EntityOrder, pathOrderID)
	}
	switch _, err := s.tickets.FindByOrder(ctx, order.ID); {
	case err == nil:
		return domain.Ticket{}, &domain.AlreadyExistsError{Entity: domain.EntityTicket, OrderID: order.ID}
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Ticket{}, domain.Unexpected(err)
	}

	now := s.now()
	draft.OrderID = order.ID
	draft.CustomerID = order.CustomerID
	draft.CreatedAt = now

	resolution := resolutionOpen
	if domain.WithinAutoResolveWindow(order.CreatedAt, now) {
		if err := s.orders.Cancel(ctx, order.ID, domain.CancelReasonAutoResolved); err != nil {
			return domain.Ticket{}, err
		}
		draft.Resolved = true
		resolution = resolutionAuto
	}

	created, err = s.tickets.Create(ctx, draft)
	if err != nil {
		return domain.Ticket{}, domain.Unexpected(err)
	}

	s.metrics.RecordTicketOpened(resolution)
	s.events.Timeline(ctx, order.ID, domain.TimelineTicketOpened, resolution, now)
	s.events.Emit(ctx, domain.AggregateTicket, created.ID, domain.EventTicketOpened, map[string]any{
		"order_id":    created.OrderID,
		"customer_id": created.CustomerID,
		"resolved":    created.Resolved,
	})
	s.logger.WithFields(log.Fields{
		"ticket_id":  created.ID,
		"order_id":   created.OrderID,
		"resolution": resolution,
	}).Info("cancellation ticket opened")
	return created, nil
}

// Get возвращает неудалённый тикет.
func (s *Service) Get(ctx context.Context, id int64) (domain.Ticket, error) {
	t, err := s.tickets.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !t.Visible()) {
		return domain.Ticket{}, domain.NotFound(domain.EntityTicket, id)
	}
	if err != nil {
		return domain.Ticket{}, domain.Unexpected(err)
	}
	return t, nil
}

// Resolve подтверждает открытый тикет: заказ отменяется, тикет становится решённым.
// Для уже решённого тикета ничего не меняется.
func (s *Service) Resolve(ctx context.Context, id int64) (resolved domain.Ticket, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("ticket.resolve", domain.ErrorKind(err), time.Since(start)) }()

	t, err := s.Get(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !t.Resolve() {
		return t, nil
	}

	if err := s.cancelOrder(ctx, t.OrderID, domain.CancelReasonResolved); err != nil {
		return domain.Ticket{}, err
	}
	if err := s.tickets.Save(ctx, t); err != nil {
		return domain.Ticket{}, domain.Unexpected(err)
	}

	s.events.Timeline(ctx, t.OrderID, domain.TimelineTicketResolved, domain.CancelReasonResolved, s.now())
	s.events.Emit(ctx, domain.AggregateTicket, t.ID, domain.EventTicketResolved, map[string]any{
		"order_id": t.OrderID,
	})
	s.logger.WithFields(log.Fields{
		"ticket_id": t.ID,
		"order_id":  t.OrderID,
	}).Info("cancellation ticket resolved")
	return t, nil
}

// Delete отменяет заказ тикета и удаляет сам тикет.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("ticket.delete", domain.ErrorKind(err), time.Since(start)) }()

	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.cancelOrder(ctx, t.OrderID, domain.CancelReasonTicketDelete); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(domain.EntityTicket, id)
		}
		return domain.Unexpected(err)
	}
	s.logger.WithFields(log.Fields{
		"ticket_id": t.ID,
		"order_id":  t.OrderID,
	}).Info("cancellation ticket deleted")
	return nil
}

// cancelOrder отменяет заказ тикета; уже отменённый заказ не считается ошибкой.
func (s *Service) cancelOrder(ctx context.Context, orderID int64, reason string) error {
	err := s.orders.Cancel(ctx, orderID, reason)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.WithField("order_id", orderID).Warn("ticket refers to a missing order")
		return nil
	}
	return err
}

// List возвращает тикеты, новые первыми. resolved фильтрует по состоянию, если задан.
func (s *Service) List(ctx context.Context, page domain.Page, resolved *bool) ([]domain.Ticket, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.tickets.List(ctx, page.WithDefaultSize(s.pageSize), resolved)
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// ListByCustomer возвращает тикеты клиента, новые первыми.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Ticket, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.tickets.ListByCustomer(ctx, customerID, page.WithDefaultSize(s.customerPageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}
