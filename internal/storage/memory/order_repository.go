package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// orderRepositoryInMemory: простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[int64]domain.Order),
	}
}

// Create присваивает заказу ID. Позиции хранятся в OrderLineRepository.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	order.Lines = nil
	r.items[order.ID] = order
	return order, nil
}

func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (r *orderRepositoryInMemory) Save(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	// Меняется только адрес доставки; флаг отмены пишет Delete.
	current.DeliveryAddressID = order.DeliveryAddressID
	r.items[order.ID] = current
	return nil
}

func (r *orderRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	order.MarkDeleted()
	r.items[id] = order
	return nil
}

// List возвращает все заказы, в том числе отменённые, новые первыми.
func (r *orderRepositoryInMemory) List(_ context.Context, page domain.Page) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, order)
	}
	return paginate(result, orderID, true, page), nil
}

func (r *orderRepositoryInMemory) ListByCustomer(_ context.Context, customerID int64, page domain.Page) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.items {
		if order.CustomerID != customerID || order.Deleted {
			continue
		}
		result = append(result, order)
	}
	return paginate(result, orderID, true, page), nil
}

func (r *orderRepositoryInMemory) CountByState(_ context.Context, state domain.OrderState) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, order := range r.items {
		if order.State() == state {
			count++
		}
	}
	return count, nil
}

func orderID(o domain.Order) int64 { return o.ID }

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
