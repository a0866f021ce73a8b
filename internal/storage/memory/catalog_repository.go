package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// catalogRepositoryInMemory: in-memory реализация CatalogRepository.
type catalogRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.CatalogEntry
}

// NewCatalogRepository возвращает in-memory репозиторий товаров.
func NewCatalogRepository() domain.CatalogRepository {
	return &catalogRepositoryInMemory{items: make(map[int64]domain.CatalogEntry)}
}

func (r *catalogRepositoryInMemory) Create(_ context.Context, entry domain.CatalogEntry) (domain.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	r.items[entry.ID] = entry
	return entry, nil
}

func (r *catalogRepositoryInMemory) Get(_ context.Context, id int64) (domain.CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.items[id]
	if !ok {
		return domain.CatalogEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (r *catalogRepositoryInMemory) Save(_ context.Context, entry domain.CatalogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[entry.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[entry.ID] = entry
	return nil
}

// Delete снимает товар с продажи; запись остаётся.
func (r *catalogRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	entry.Withdraw()
	r.items[id] = entry
	return nil
}

func (r *catalogRepositoryInMemory) List(_ context.Context, page domain.Page) ([]domain.CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.CatalogEntry, 0, len(r.items))
	for _, entry := range r.items {
		result = append(result, entry)
	}
	return paginate(result, catalogID, false, page), nil
}

func (r *catalogRepositoryInMemory) ListExcluding(_ context.Context, ids []int64) ([]domain.CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	excluded := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		excluded[id] = struct{}{}
	}

	result := make([]domain.CatalogEntry, 0, len(r.items))
	for id, entry := range r.items {
		if _, skip := excluded[id]; skip {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *catalogRepositoryInMemory) CountForSale(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.items {
		if entry.SaleEligible {
			count++
		}
	}
	return count, nil
}

func (r *catalogRepositoryInMemory) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func catalogID(e domain.CatalogEntry) int64 { return e.ID }

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
