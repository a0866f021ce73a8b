// Package address управляет адресной книгой клиентов с проверкой владения.
package address

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
)

const defaultPageSize = 10

// Сообщения об ошибках владения.
const (
	msgDeclaredOwnerMismatch = "CustomerId of address is not the id of the customer"
	msgNotOwnedByCustomer    = "address does not belong to the customer"
)

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

// WithRecorder подключает запись доменных событий.
func WithRecorder(rec *eventlog.Recorder) Option {
	return func(s *Service) { s.events = rec }
}

// WithPageSize переопределяет размер страницы листингов.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service: операции над адресами в контексте клиента.
type Service struct {
	addresses domain.AddressRepository
	customers domain.CustomerRepository
	events    *eventlog.Recorder
	metrics   *metrics.BackofficeMetrics
	logger    *log.Entry
	pageSize  int
	now       func() time.Time
}

// New создаёт сервис адресов.
func New(addresses domain.AddressRepository, customers domain.CustomerRepository, opts ...Option) *Service {
	s := &Service{
		addresses: addresses,
		customers: customers,
		pageSize:  defaultPageSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "address-service")
	}
	return s
}

// List возвращает страницу неудалённых адресов по возрастанию ID.
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.Address, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.addresses.List(ctx, page.WithDefaultSize(s.pageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// ListByCustomer возвращает страницу неудалённых адресов клиента.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Address, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.addresses.ListByCustomer(ctx, customerID, page.WithDefaultSize(s.pageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// Get возвращает адрес; удалённый адрес неотличим от отсутствующего.
func (s *Service) Get(ctx context.Context, id int64) (domain.Address, error) {
	address, err := s.addresses.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !address.Visible()) {
		return domain.Address{}, domain.NotFound(domain.EntityAddress, id)
	}
	if err != nil {
		return domain.Address{}, domain.Unexpected(err)
	}
	return address, nil
}

// Create добавляет адрес клиенту. Заявленный владелец должен совпадать с customerID.
func (s *Service) Create(ctx context.Context, customerID int64, address domain.Address) (created domain.Address, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("address.create", domain.ErrorKind(err), time.Since(start)) }()

	if customerID <= 0 {
		return domain.Address{}, domain.NullID(domain.EntityCustomer)
	}
	if address.CustomerID != customerID {
		return domain.Address{}, domain.OwnershipMismatch(msgDeclaredOwnerMismatch)
	}
	if err := address.Validate(); err != nil {
		return domain.Address{}, err
	}
	customer, err := s.liveCustomer(ctx, customerID)
	if err != nil {
		return domain.Address{}, err
	}

	address.ID = 0
	address.Deleted = false
	created, err = s.addresses.Create(ctx, address)
	if err != nil {
		return domain.Address{}, domain.Unexpected(err)
	}

	// Пересохраняем клиента, чтобы зафиксировать изменение его адресной книги.
	customer.UpdatedAt = s.now()
	if err := s.customers.Save(ctx, customer); err != nil {
		return domain.Address{}, domain.Unexpected(err)
	}

	s.events.Emit(ctx, domain.AggregateAddress, created.ID, domain.EventAddressCreated, map[string]any{
		"customer_id": customerID,
	})
	return created, nil
}

// Update перезаписывает все поля адреса, если он принадлежит клиенту.
func (s *Service) Update(ctx context.Context, customerID, addressID int64, payload domain.Address) (updated domain.Address, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("address.update", domain.ErrorKind(err), time.Since(start)) }()

	if customerID <= 0 {
		return domain.Address{}, domain.NullID(domain.EntityCustomer)
	}
	if err := payload.Validate(); err != nil {
		return domain.Address{}, err
	}

	address, err := s.addresses.Get(ctx, addressID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !address.Visible()) {
		return domain.Address{}, domain.NoSuchID(domain.EntityAddress, addressID)
	}
	if err != nil {
		return domain.Address{}, domain.Unexpected(err)
	}
	if address.CustomerID != customerID {
		return domain.Address{}, domain.OwnershipMismatch(msgNotOwnedByCustomer)
	}

	address.Overwrite(payload)
	if err := s.addresses.Save(ctx, address); err != nil {
		return domain.Address{}, domain.Unexpected(err)
	}
	return address, nil
}

// Delete помечает адрес удалённым, если он входит в адресную книгу клиента.
func (s *Service) Delete(ctx context.Context, customerID, addressID int64) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("address.delete", domain.ErrorKind(err), time.Since(start)) }()

	if customerID <= 0 {
		return domain.NullID(domain.EntityCustomer)
	}
	if _, err := s.liveCustomer(ctx, customerID); err != nil {
		return err
	}

	address, err := s.addresses.Get(ctx, addressID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.OwnershipMismatch(msgNotOwnedByCustomer)
	}
	if err != nil {
		return domain.Unexpected(err)
	}
	if address.CustomerID != customerID {
		return domain.OwnershipMismatch(msgNotOwnedByCustomer)
	}

	if err := s.addresses.Delete(ctx, addressID); err != nil {
		return domain.Unexpected(err)
	}
	s.logger.WithFields(log.Fields{
		"customer_id": customerID,
		"address_id":  addressID,
	}).Info("address deleted")
	s.events.Emit(ctx, domain.AggregateAddress, addressID, domain.EventAddressDeleted, map[string]any{
		"customer_id": customerID,
	})
	return nil
}

func (s *Service) liveCustomer(ctx context.Context, customerID int64) (domain.Customer, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !customer.Visible()) {
		return domain.Customer{}, domain.NoSuchID(domain.EntityCustomer, customerID)
	}
	if err != nil {
		return domain.Customer{}, domain.Unexpected(err)
	}
	return customer, nil
}
