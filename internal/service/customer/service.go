// Package customer управляет клиентами: регистрация для внешнего пользователя,
// реактивация удалённой записи, частичное обновление и soft-delete.
package customer

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

const defaultPageSize = 10

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

// WithPageSize переопределяет размер страницы листинга.
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

// Service: операции над клиентами.
type Service struct {
	customers domain.CustomerRepository
	users     domain.UserRepository
	addresses *address.Service
	events    *eventlog.Recorder
	metrics   *metrics.BackofficeMetrics
	logger    *log.Entry
	pageSize  int
	now       func() time.Time
}

// New создаёт сервис клиентов. Адреса из payload добавляются через addresses.
func New(customers domain.CustomerRepository, users domain.UserRepository, addresses *address.Service, opts ...Option) *Service {
	s := &Service{
		customers: customers,
		users:     users,
		addresses: addresses,
		pageSize:  defaultPageSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "customer-service")
	}
	return s
}

// List возвращает страницу живых клиентов по возрастанию ID.
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.Customer, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	list, err := s.customers.List(ctx, page.WithDefaultSize(s.pageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return list, nil
}

// Get возвращает живого клиента или NotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.Customer, error) {
	customer, err := s.customers.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !customer.Visible()) {
		return domain.Customer{}, domain.NotFound(domain.EntityCustomer, id)
	}
	if err != nil {
		return domain.Customer{}, domain.Unexpected(err)
	}
	return customer, nil
}

// Create регистрирует клиента для существующего пользователя.
// Если у пользователя есть удалённый клиент, он реактивируется с тем же ID.
func (s *Service) Create(ctx context.Context, signup domain.CustomerSignup) (result domain.Customer, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("customer.create", domain.ErrorKind(err), time.Since(start)) }()

	if signup.UserID <= 0 {
		return domain.Customer{}, domain.NullID(domain.EntityUser)
	}
	if err := signup.Validate(); err != nil {
		return domain.Customer{}, err
	}
	for _, a := range signup.Addresses {
		if err := a.Validate(); err != nil {
			return domain.Customer{}, err
		}
	}

	user, err := s.users.Get(ctx, signup.UserID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && user.Deleted) {
		return domain.Customer{}, domain.NoSuchID(domain.EntityUser, signup.UserID)
	}
	if err != nil {
		return domain.Customer{}, domain.Unexpected(err)
	}

	existing, err := s.customers.FindByUser(ctx, user.ID)
	switch {
	case err == nil && existing.Visible():
		return domain.Customer{}, &domain.AlreadyExistsError{Entity: domain.EntityCustomer, UserID: user.ID}
	case err == nil:
		return s.reactivate(ctx, existing, user, signup)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Customer{}, domain.Unexpected(err)
	}

	now := s.now()
	customer := domain.Customer{
		Name:         signup.Name,
		Document:     signup.Document,
		Status:       domain.CustomerStatusActive,
		Type:         signup.Type,
		CreditScore:  signup.CreditScore,
		PasswordHash: user.PasswordHash,
		UserID:       user.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.customers.Create(ctx, customer)
	if err != nil {
		return domain.Customer{}, domain.Unexpected(err)
	}

	user.CustomerID = created.ID
	if err := s.users.Save(ctx, user); err != nil {
		return domain.Customer{}, domain.Unexpected(err)
	}
	if err := s.attachAddresses(ctx, created.ID, signup.Addresses); err != nil {
		return domain.Customer{}, err
	}

	s.logger.WithFields(log.Fields{
		"customer_id": created.ID,
		"user_id":     user.ID,
	}).Info("customer created")
	s.events.Emit(ctx, domain.AggregateCustomer, created.ID, domain.EventCustomerCreated, map[string]any{
		"user_id": user.ID,
	})
	return created, nil
}

// reactivate сливает регистрацию в удалённого клиента через путь обновления.
func (s *Service) reactivate(ctx context.Context, existing domain.Customer, user domain.User, signup domain.CustomerSignup) (domain.Customer, error) {
	existing.Reactivate(user.PasswordHash)
	merged, err := s.merge(ctx, existing, signup.Patch())
	if err != nil {
		return domain.Customer{}, err
	}

	if user.CustomerID != merged.ID {
		user.CustomerID = merged.ID
		if err := s.users.Save(ctx, user); err != nil {
			return domain.Customer{}, domain.Unexpected(err)
		}
	}

	s.metrics.RecordCustomerReactivated()
	s.logger.WithFields(log.Fields{
		"customer_id": merged.ID,
		"user_id":     user.ID,
	}).Info("customer reactivated")
	s.events.Emit(ctx, domain.AggregateCustomer, merged.ID, domain.EventCustomerReactivated, map[string]any{
		"user_id": user.ID,
	})
	return merged, nil
}

// Update применяет частичное обновление к живому клиенту.
func (s *Service) Update(ctx context.Context, id int64, patch domain.CustomerPatch) (updated domain.Customer, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("customer.update", domain.ErrorKind(err), time.Since(start)) }()

	customer, err := s.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return s.merge(ctx, customer, patch)
}

func (s *Service) merge(ctx context.Context, customer domain.Customer, patch domain.CustomerPatch) (domain.Customer, error) {
	patch.Apply(&customer)
	if err := customer.Validate(); err != nil {
		return domain.Customer{}, err
	}
	customer.UpdatedAt = s.now()
	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Customer{}, domain.NotFound(domain.EntityCustomer, customer.ID)
		}
		return domain.Customer{}, domain.Unexpected(err)
	}
	if err := s.attachAddresses(ctx, customer.ID, patch.Addresses); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

// attachAddresses добавляет адреса к адресной книге, не заменяя существующие.
func (s *Service) attachAddresses(ctx context.Context, customerID int64, addresses []domain.Address) error {
	if s.addresses == nil {
		return nil
	}
	for _, a := range addresses {
		a.CustomerID = customerID
		if _, err := s.addresses.Create(ctx, customerID, a); err != nil {
			return err
		}
	}
	return nil
}

// Delete помечает клиента удалённым. Адреса и заказы остаются со своими флагами.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("customer.delete", domain.ErrorKind(err), time.Since(start)) }()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(domain.EntityCustomer, id)
		}
		return domain.Unexpected(err)
	}

	s.logger.WithField("customer_id", id).Info("customer deleted")
	s.events.Emit(ctx, domain.AggregateCustomer, id, domain.EventCustomerDeleted, nil)
	return nil
}
