package domain

import "time"

// EntityTicket: имя сущности в ошибках.
const EntityTicket = "Ticket"

// AutoResolveWindow: окно после создания заказа, в котором тикет отменяет заказ сразу.
const AutoResolveWindow = 2 * time.Hour

// TicketState: состояние тикета отмены; переход односторонний.
type TicketState string

const (
	TicketStateOpen     TicketState = "open"
	TicketStateResolved TicketState = "resolved"
)

// Ticket: запрос клиента на отмену заказа.
type Ticket struct {
	ID         int64
	OrderID    int64
	CustomerID int64
	Message    string `validate:"notblank"`
	CreatedAt  time.Time
	Resolved   bool
	Deleted    bool
}

// Validate проверяет текст обращения.
func (t Ticket) Validate() error {
	return validateStruct(t)
}

// State вычисляет состояние тикета.
func (t Ticket) State() TicketState {
	if t.Resolved {
		return TicketStateResolved
	}
	return TicketStateOpen
}

// Visible сообщает, виден ли тикет обычным запросам.
func (t Ticket) Visible() bool { return !t.Deleted }

// Resolve переводит тикет в Resolved. Возвращает false, если он уже решён.
func (t *Ticket) Resolve() bool {
	if t.Resolved {
		return false
	}
	t.Resolved = true
	return true
}

// MarkDeleted удаляет тикет; удалённый тикет всегда считается решённым.
func (t *Ticket) MarkDeleted() {
	t.Deleted = true
	t.Resolved = true
}

// WithinAutoResolveWindow сообщает, попадает ли момент создания тикета в окно
// автоматической отмены. Граница включительная: ровно 2 часа ещё в окне.
func WithinAutoResolveWindow(orderCreatedAt, ticketCreatedAt time.Time) bool {
	return ticketCreatedAt.Sub(orderCreatedAt) <= AutoResolveWindow
}
