package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// addressRepositoryInMemory: in-memory реализация AddressRepository.
type addressRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Address
}

// NewAddressRepository возвращает in-memory репозиторий адресов.
func NewAddressRepository() domain.AddressRepository {
	return &addressRepositoryInMemory{items: make(map[int64]domain.Address)}
}

func (r *addressRepositoryInMemory) Create(_ context.Context, address domain.Address) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	address.ID = r.nextID
	r.items[address.ID] = address
	return address, nil
}

func (r *addressRepositoryInMemory) Get(_ context.Context, id int64) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.items[id]
	if !ok {
		return domain.Address{}, domain.ErrNotFound
	}
	return address, nil
}

func (r *addressRepositoryInMemory) Save(_ context.Context, address domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[address.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[address.ID] = address
	return nil
}

func (r *addressRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	address, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	address.MarkDeleted()
	r.items[id] = address
	return nil
}

func (r *addressRepositoryInMemory) List(_ context.Context, page domain.Page) ([]domain.Address, error) {
	return r.filter(page, func(domain.Address) bool { return true }), nil
}

func (r *addressRepositoryInMemory) ListByCustomer(_ context.Context, customerID int64, page domain.Page) ([]domain.Address, error) {
	return r.filter(page, func(a domain.Address) bool { return a.CustomerID == customerID }), nil
}

func (r *addressRepositoryInMemory) filter(page domain.Page, keep func(domain.Address) bool) []domain.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Address, 0, len(r.items))
	for _, address := range r.items {
		if address.Deleted || !keep(address) {
			continue
		}
		result = append(result, address)
	}
	return paginate(result, func(a domain.Address) int64 { return a.ID }, false, page)
}

var _ domain.AddressRepository = (*addressRepositoryInMemory)(nil)
