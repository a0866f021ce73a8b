package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// userRepositoryInMemory: in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.User
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{items: make(map[int64]domain.User)}
}

func (r *userRepositoryInMemory) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	user.ID = r.nextID
	user.Authorities = append([]domain.Authority(nil), user.Authorities...)
	r.items[user.ID] = user
	return user, nil
}

func (r *userRepositoryInMemory) Get(_ context.Context, id int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	user.Authorities = append([]domain.Authority(nil), user.Authorities...)
	return user, nil
}

func (r *userRepositoryInMemory) Save(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[user.ID]; !ok {
		return domain.ErrNotFound
	}
	user.Authorities = append([]domain.Authority(nil), user.Authorities...)
	r.items[user.ID] = user
	return nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
