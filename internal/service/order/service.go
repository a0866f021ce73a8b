// Package order реализует жизненный цикл заказа: оформление с проверкой
// клиента, адреса и доступности товаров, обновление адреса доставки и отмену.
package order

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/address"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
)

const (
	defaultPageSize         = 6
	defaultCustomerPageSize = 2

	// nullIDEntities: имя составной сущности при отсутствии клиента или адреса.
	nullIDEntities = "Customer or Address"

	msgAddressNotOwned = "delivery address does not belong to the customer"
)

// Repositories: хранилища, с которыми работает сервис заказов.
type Repositories struct {
	Orders    domain.OrderRepository
	Lines     domain.OrderLineRepository
	Customers domain.CustomerRepository
	Addresses domain.AddressRepository
	Catalog   domain.CatalogRepository
}

// Update: запрос на изменение заказа. Address, если задан, обновляет содержимое адреса.
type Update struct {
	DeliveryAddressID int64
	Address           *domain.Address
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

// WithHeaderFirst сохраняет заголовок заказа до проверки позиций.
// При отказе NotForSale заказ остаётся сохранённым с уже принятыми позициями.
func WithHeaderFirst() Option {
	return func(s *Service) { s.headerFirst = true }
}

// WithDeliveryReassignment разрешает перевести заказ на другой живой адрес того же клиента.
// Без опции адрес доставки обновляется только при совпадении идентификаторов.
func WithDeliveryReassignment() Option {
	return func(s *Service) { s.allowReassign = true }
}

// Service: операции над заказами.
type Service struct {
	orders    domain.OrderRepository
	lines     domain.OrderLineRepository
	customers domain.CustomerRepository
	addresses domain.AddressRepository
	catalog   domain.CatalogRepository
	addressSv *address.Service

	events  *eventlog.Recorder
	metrics *metrics.BackofficeMetrics
	logger  *log.Entry
	now     func() time.Time

	pageSize         int
	customerPageSize int
	headerFirst      bool
	allowReassign    bool
}

// New создаёт сервис заказов. addressSvc используется для обновления содержимого адреса доставки.
func New(repos Repositories, addressSvc *address.Service, opts ...Option) *Service {
	s := &Service{
		orders:           repos.Orders,
		lines:            repos.Lines,
		customers:        repos.Customers,
		addresses:        repos.Addresses,
		catalog:          repos.Catalog,
		addressSv:        addressSvc,
		now:              func() time.Time { return time.Now().UTC() },
		pageSize:         defaultPageSize,
		customerPageSize: defaultCustomerPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-service")
	}
	return s
}

// Create оформляет заказ клиента с доставкой на его адрес.
func (s *Service) Create(ctx context.Context, customerID, addressID int64, requests []domain.LineRequest) (created domain.Order, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("order.create", domain.ErrorKind(err), time.Since(start)) }()

	if customerID <= 0 || addressID <= 0 {
		return domain.Order{}, domain.NullID(nullIDEntities)
	}
	for _, req := range requests {
		if err := req.Validate(); err != nil {
			return domain.Order{}, err
		}
	}

	customer, deliveryAddress, err := s.resolveParties(ctx, customerID, addressID)
	if err != nil {
		return domain.Order{}, err
	}
	if deliveryAddress.CustomerID != customer.ID {
		return domain.Order{}, domain.OwnershipMismatch(msgAddressNotOwned)
	}

	if s.headerFirst {
		return s.createHeaderFirst(ctx, customer, addressID, requests)
	}

	// Все позиции проверяются до записи: отказ не оставляет ни заказа, ни позиций.
	entries := make([]domain.CatalogEntry, len(requests))
	for i, req := range requests {
		entry, err := s.saleableEntry(ctx, req.EntryID)
		if err != nil {
			return domain.Order{}, err
		}
		entries[i] = entry
	}

	order, err := s.persistHeader(ctx, customer, addressID)
	if err != nil {
		return domain.Order{}, err
	}
	for i, req := range requests {
		if err := s.lines.Save(ctx, domain.NewOrderLine(order.ID, entries[i], req)); err != nil {
			return domain.Order{}, domain.Unexpected(err)
		}
	}
	return s.finishCreate(ctx, order)
}

// createHeaderFirst повторяет исходный порядок записи: заголовок, затем позиции по одной.
func (s *Service) createHeaderFirst(ctx context.Context, customer domain.Customer, addressID int64, requests []domain.LineRequest) (domain.Order, error) {
	order, err := s.persistHeader(ctx, customer, addressID)
	if err != nil {
		return domain.Order{}, err
	}
	for _, req := range requests {
		entry, err := s.saleableEntry(ctx, req.EntryID)
		if err != nil {
			s.events.Timeline(ctx, order.ID, domain.TimelineOrderLinesRejected, err.Error(), s.now())
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("order header persisted without all lines")
			return domain.Order{}, err
		}
		if err := s.lines.Save(ctx, domain.NewOrderLine(order.ID, entry, req)); err != nil {
			return domain.Order{}, domain.Unexpected(err)
		}
	}
	return s.finishCreate(ctx, order)
}

func (s *Service) persistHeader(ctx context.Context, customer domain.Customer, addressID int64) (domain.Order, error) {
	now := s.now()
	order, err := s.orders.Create(ctx, domain.Order{
		CustomerID:        customer.ID,
		DeliveryAddressID: addressID,
		CreatedAt:         now,
	})
	if err != nil {
		return domain.Order{}, domain.Unexpected(err)
	}

	// Пересохраняем клиента, фиксируя новый заказ в его коллекции.
	customer.UpdatedAt = now
	if err := s.customers.Save(ctx, customer); err != nil {
		return domain.Order{}, domain.Unexpected(err)
	}
	return order, nil
}

func (s *Service) finishCreate(ctx context.Context, order domain.Order) (domain.Order, error) {
	lines, err := s.lines.ListByOrder(ctx, order.ID)
	if err != nil {
		return domain.Order{}, domain.Unexpected(err)
	}
	order.Lines = lines

	s.metrics.RecordOrderCreated()
	s.events.Timeline(ctx, order.ID, domain.TimelineOrderCreated, "", order.CreatedAt)
	s.events.Emit(ctx, domain.AggregateOrder, order.ID, domain.EventOrderCreated, map[string]any{
		"customer_id":         order.CustomerID,
		"delivery_address_id": order.DeliveryAddressID,
		"lines":               len(lines),
	})
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
	}).Info("order created")
	return order, nil
}

// resolveParties загружает клиента и адрес; отсутствие любого даёт составную ошибку.
func (s *Service) resolveParties(ctx context.Context, customerID, addressID int64) (domain.Customer, domain.Address, error) {
	customer, custErr := s.customers.Get(ctx, customerID)
	if custErr != nil && !errors.Is(custErr, domain.ErrNotFound) {
		return domain.Customer{}, domain.Address{}, domain.Unexpected(custErr)
	}
	addr, addrErr := s.addresses.Get(ctx, addressID)
	if addrErr != nil && !errors.Is(addrErr, domain.ErrNotFound) {
		return domain.Customer{}, domain.Address{}, domain.Unexpected(addrErr)
	}
	if custErr != nil || addrErr != nil || !customer.Visible() || !addr.Visible() {
		return domain.Customer{}, domain.Address{}, domain.NoSuchIDs(domain.EntityCustomer, domain.EntityAddress, customerID, addressID)
	}
	return customer, addr, nil
}

func (s *Service) saleableEntry(ctx context.Context, entryID int64) (domain.CatalogEntry, error) {
	entry, err := s.catalog.Get(ctx, entryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.CatalogEntry{}, domain.NoSuchID(domain.EntityCatalogEntry, entryID)
	}
	if err != nil {
		return domain.CatalogEntry{}, domain.Unexpected(err)
	}
	if !entry.SaleEligible {
		s.metrics.RecordLineRejected()
		return domain.CatalogEntry{}, domain.NotForSale(entryID)
	}
	return entry, nil
}

// Get возвращает открытый заказ с позициями; отменённый неотличим от отсутствующего.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	order, err := s.visible(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	lines, err := s.lines.ListByOrder(ctx, id)
	if err != nil {
		return domain.Order{}, domain.Unexpected(err)
	}
	order.Lines = lines
	return order, nil
}

func (s *Service) visible(ctx context.Context, id int64) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !order.Visible()) {
		return domain.Order{}, domain.NotFound(domain.EntityOrder, id)
	}
	if err != nil {
		return domain.Order{}, domain.Unexpected(err)
	}
	return order, nil
}

// Update меняет адрес доставки открытого заказа.
//
// При совпадении идентификаторов содержимое адреса обновляется через сервис адресов,
// а ссылка остаётся прежней. Другой идентификатор принимается только с
// WithDeliveryReassignment; иначе заказ возвращается без изменений.
func (s *Service) Update(ctx context.Context, id int64, upd Update) (updated domain.Order, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("order.update", domain.ErrorKind(err), time.Since(start)) }()

	order, err := s.visible(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	switch {
	case upd.DeliveryAddressID == order.DeliveryAddressID:
		if upd.Address != nil {
			if _, err := s.addressSv.Update(ctx, order.CustomerID, order.DeliveryAddressID, *upd.Address); err != nil {
				return domain.Order{}, err
			}
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return domain.Order{}, domain.Unexpected(err)
		}
		s.events.Timeline(ctx, order.ID, domain.TimelineDeliveryAddressRefreshed, "", s.now())
	case s.allowReassign:
		if err := s.reassign(ctx, &order, upd.DeliveryAddressID); err != nil {
			return domain.Order{}, err
		}
	default:
		s.logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"address_id": upd.DeliveryAddressID,
		}).Debug("delivery address reassignment ignored")
		return s.Get(ctx, id)
	}

	s.events.Emit(ctx, domain.AggregateOrder, order.ID, domain.EventOrderDeliveryAddressUpdated, map[string]any{
		"delivery_address_id": order.DeliveryAddressID,
	})
	return s.Get(ctx, id)
}

func (s *Service) reassign(ctx context.Context, order *domain.Order, addressID int64) error {
	if addressID <= 0 {
		return domain.NullID(domain.EntityAddress)
	}
	addr, err := s.addresses.Get(ctx, addressID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !addr.Visible()) {
		return domain.NoSuchID(domain.EntityAddress, addressID)
	}
	if err != nil {
		return domain.Unexpected(err)
	}
	if addr.CustomerID != order.CustomerID {
		return domain.OwnershipMismatch(msgAddressNotOwned)
	}

	previous := order.DeliveryAddressID
	order.DeliveryAddressID = addressID
	if err := s.orders.Save(ctx, *order); err != nil {
		return domain.Unexpected(err)
	}
	s.events.Timeline(ctx, order.ID, domain.TimelineDeliveryAddressChanged, "", s.now())
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"from_address": previous,
		"to_address":   addressID,
	}).Info("delivery address reassigned")
	return nil
}

// Delete отменяет открытый заказ.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("order.delete", domain.ErrorKind(err), time.Since(start)) }()

	if _, err := s.visible(ctx, id); err != nil {
		return err
	}
	return s.Cancel(ctx, id, domain.CancelReasonExplicit)
}

// Cancel переводит заказ в Cancelled. Повторная отмена ничего не делает.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) error {
	order, err := s.orders.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(domain.EntityOrder, id)
	}
	if err != nil {
		return domain.Unexpected(err)
	}
	if !order.Visible() {
		return nil
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(domain.EntityOrder, id)
		}
		return domain.Unexpected(err)
	}

	s.metrics.RecordOrderCanceled(reason)
	s.events.Timeline(ctx, id, domain.TimelineOrderCanceled, reason, s.now())
	s.events.Emit(ctx, domain.AggregateOrder, id, domain.EventOrderCanceled, map[string]any{
		"customer_id": order.CustomerID,
		"reason":      reason,
	})
	s.logger.WithFields(log.Fields{
		"order_id": id,
		"reason":   reason,
	}).Info("order canceled")
	return nil
}

// List возвращает все заказы, включая отменённые, новые первыми.
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.orders.List(ctx, page.WithDefaultSize(s.pageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// ListByCustomer возвращает только открытые заказы клиента, новые первыми.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Order, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.orders.ListByCustomer(ctx, customerID, page.WithDefaultSize(s.customerPageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// Info возвращает число открытых и отменённых заказов.
func (s *Service) Info(ctx context.Context) (domain.OrdersInfo, error) {
	open, err := s.orders.CountByState(ctx, domain.OrderStateOpen)
	if err != nil {
		return domain.OrdersInfo{}, domain.Unexpected(err)
	}
	cancelled, err := s.orders.CountByState(ctx, domain.OrderStateCancelled)
	if err != nil {
		return domain.OrdersInfo{}, domain.Unexpected(err)
	}
	return domain.OrdersInfo{Open: open, Cancelled: cancelled}, nil
}

// Timeline возвращает историю заказа, в том числе отменённого.
func (s *Service) Timeline(ctx context.Context, id int64) ([]domain.TimelineEvent, error) {
	if _, err := s.orders.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(domain.EntityOrder, id)
		}
		return nil, domain.Unexpected(err)
	}
	events, err := s.events.History(ctx, id)
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return events, nil
}
