package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// ticketRepositoryInMemory: in-memory реализация TicketRepository.
type ticketRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Ticket
}

// NewTicketRepository возвращает in-memory репозиторий тикетов отмены.
func NewTicketRepository() domain.TicketRepository {
	return &ticketRepositoryInMemory{items: make(map[int64]domain.Ticket)}
}

func (r *ticketRepositoryInMemory) Create(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.liveForOrder(ticket.OrderID); ok {
		return domain.Ticket{}, &domain.AlreadyExistsError{Entity: domain.EntityTicket, OrderID: ticket.OrderID}
	}
	r.nextID++
	ticket.ID = r.nextID
	r.items[ticket.ID] = ticket
	return ticket, nil
}

func (r *ticketRepositoryInMemory) Get(_ context.Context, id int64) (domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.items[id]
	if !ok {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return ticket, nil
}

func (r *ticketRepositoryInMemory) Save(_ context.Context, ticket domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[ticket.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[ticket.ID] = ticket
	return nil
}

func (r *ticketRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	ticket.MarkDeleted()
	r.items[id] = ticket
	return nil
}

func (r *ticketRepositoryInMemory) FindByOrder(_ context.Context, orderID int64) (domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.liveForOrder(orderID)
	if !ok {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return ticket, nil
}

// liveForOrder вызывается под блокировкой.
func (r *ticketRepositoryInMemory) liveForOrder(orderID int64) (domain.Ticket, bool) {
	for _, ticket := range r.items {
		if ticket.OrderID == orderID && !ticket.Deleted {
			return ticket, true
		}
	}
	return domain.Ticket{}, false
}

func (r *ticketRepositoryInMemory) List(_ context.Context, page domain.Page, resolved *bool) ([]domain.Ticket, error) {
	return r.filter(page, func(t domain.Ticket) bool {
		return resolved == nil || t.Resolved == *resolved
	}), nil
}

func (r *ticketRepositoryInMemory) ListByCustomer(_ context.Context, customerID int64, page domain.Page) ([]domain.Ticket, error) {
	return r.filter(page, func(t domain.Ticket) bool { return t.CustomerID == customerID }), nil
}

func (r *ticketRepositoryInMemory) filter(page domain.Page, keep func(domain.Ticket) bool) []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Ticket, 0)
	for _, ticket := range r.items {
		if ticket.Deleted || !keep(ticket) {
			continue
		}
		result = append(result, ticket)
	}
	return paginate(result, func(t domain.Ticket) int64 { return t.ID }, true, page)
}

var _ domain.TicketRepository = (*ticketRepositoryInMemory)(nil)
