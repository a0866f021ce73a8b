package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// customerRepositoryInMemory: in-memory реализация CustomerRepository.
type customerRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Customer
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{items: make(map[int64]domain.Customer)}
}

func (r *customerRepositoryInMemory) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Один клиент на пользователя: аналог уникального индекса user_id.
	for _, existing := range r.items {
		if existing.UserID == customer.UserID {
			return domain.Customer{}, &domain.AlreadyExistsError{Entity: domain.EntityCustomer, UserID: customer.UserID}
		}
	}

	r.nextID++
	customer.ID = r.nextID
	r.items[customer.ID] = customer
	return customer, nil
}

func (r *customerRepositoryInMemory) Get(_ context.Context, id int64) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrNotFound
	}
	return customer, nil
}

func (r *customerRepositoryInMemory) Save(_ context.Context, customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[customer.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	customer.MarkDeleted()
	r.items[id] = customer
	return nil
}

func (r *customerRepositoryInMemory) List(_ context.Context, page domain.Page) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.items))
	for _, customer := range r.items {
		if customer.Deleted {
			continue
		}
		result = append(result, customer)
	}
	return paginate(result, func(c domain.Customer) int64 { return c.ID }, false, page), nil
}

func (r *customerRepositoryInMemory) FindByUser(_ context.Context, userID int64) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, customer := range r.items {
		if customer.UserID == userID {
			return customer, nil
		}
	}
	return domain.Customer{}, domain.ErrNotFound
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
