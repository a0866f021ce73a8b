package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// orderLineRepositoryInMemory хранит позиции по составному ключу (заказ, товар).
type orderLineRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[domain.LineKey]domain.OrderLine
}

// NewOrderLineRepository возвращает in-memory репозиторий позиций.
func NewOrderLineRepository() domain.OrderLineRepository {
	return &orderLineRepositoryInMemory{items: make(map[domain.LineKey]domain.OrderLine)}
}

func (r *orderLineRepositoryInMemory) Save(_ context.Context, line domain.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[line.Key()] = line
	return nil
}

func (r *orderLineRepositoryInMemory) ListByOrder(_ context.Context, orderID int64) ([]domain.OrderLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OrderLine, 0)
	for key, line := range r.items {
		if key.OrderID == orderID {
			result = append(result, line)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryID < result[j].EntryID })
	return result, nil
}

func (r *orderLineRepositoryInMemory) QuantitySold(_ context.Context) ([]domain.SalesRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[int64]int64)
	for key, line := range r.items {
		totals[key.EntryID] += int64(line.Quantity)
	}

	result := make([]domain.SalesRow, 0, len(totals))
	for entryID, qty := range totals {
		result = append(result, domain.SalesRow{EntryID: entryID, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryID < result[j].EntryID })
	return result, nil
}

var _ domain.OrderLineRepository = (*orderLineRepositoryInMemory)(nil)
