package domain

import "context"

// Repository-методы Get возвращают запись независимо от флага удаления
// (прямой probe хранилища); видимость применяют сервисы.
// Delete выполняет soft-delete через переход MarkDeleted/Withdraw сущности.
// Отсутствующая запись во всех методах даёт ErrNotFound.

// CatalogRepository описывает хранилище товарных предложений.
type CatalogRepository interface {
	// Create присваивает ID и сохраняет товар.
	Create(ctx context.Context, entry CatalogEntry) (CatalogEntry, error)
	Get(ctx context.Context, id int64) (CatalogEntry, error)
	// Save перезаписывает существующий товар.
	Save(ctx context.Context, entry CatalogEntry) error
	// Delete снимает товар с продажи.
	Delete(ctx context.Context, id int64) error
	// List возвращает страницу товаров по возрастанию ID.
	List(ctx context.Context, page Page) ([]CatalogEntry, error)
	// ListExcluding возвращает все товары, чьих ID нет в списке, по возрастанию ID.
	ListExcluding(ctx context.Context, ids []int64) ([]CatalogEntry, error)
	// CountForSale считает товары с флагом продажи.
	CountForSale(ctx context.Context) (int, error)
	// Count считает все товары.
	Count(ctx context.Context) (int, error)
}

// AddressRepository описывает хранилище адресов.
type AddressRepository interface {
	Create(ctx context.Context, address Address) (Address, error)
	Get(ctx context.Context, id int64) (Address, error)
	Save(ctx context.Context, address Address) error
	Delete(ctx context.Context, id int64) error
	// List возвращает страницу неудалённых адресов по возрастанию ID.
	List(ctx context.Context, page Page) ([]Address, error)
	// ListByCustomer возвращает неудалённые адреса клиента по возрастанию ID.
	ListByCustomer(ctx context.Context, customerID int64, page Page) ([]Address, error)
}

// CustomerRepository описывает хранилище клиентов.
type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Save(ctx context.Context, customer Customer) error
	Delete(ctx context.Context, id int64) error
	// List возвращает страницу неудалённых клиентов по возрастанию ID.
	List(ctx context.Context, page Page) ([]Customer, error)
	// FindByUser возвращает клиента пользователя, включая удалённого.
	FindByUser(ctx context.Context, userID int64) (Customer, error)
}

// UserRepository описывает хранилище внешних учётных записей.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	Save(ctx context.Context, user User) error
}

// OrderRepository описывает хранилище заголовков заказов.
type OrderRepository interface {
	Create(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	// Save меняет только адрес доставки.
	Save(ctx context.Context, order Order) error
	// Delete отменяет заказ; это единственный способ изменить флаг отмены.
	Delete(ctx context.Context, id int64) error
	// List возвращает страницу всех заказов, включая отменённые, по убыванию ID.
	List(ctx context.Context, page Page) ([]Order, error)
	// ListByCustomer возвращает открытые заказы клиента по убыванию ID.
	ListByCustomer(ctx context.Context, customerID int64, page Page) ([]Order, error)
	// CountByState считает заказы в заданном состоянии.
	CountByState(ctx context.Context, state OrderState) (int, error)
}

// OrderLineRepository описывает хранилище позиций заказа.
type OrderLineRepository interface {
	// Save вставляет позицию или заменяет существующую с тем же (OrderID, EntryID).
	Save(ctx context.Context, line OrderLine) error
	// ListByOrder возвращает позиции заказа по возрастанию EntryID.
	ListByOrder(ctx context.Context, orderID int64) ([]OrderLine, error)
	// QuantitySold суммирует количество по товарам, по возрастанию EntryID. Name не заполняется.
	QuantitySold(ctx context.Context) ([]SalesRow, error)
}

// TicketRepository описывает хранилище тикетов отмены.
type TicketRepository interface {
	Create(ctx context.Context, ticket Ticket) (Ticket, error)
	Get(ctx context.Context, id int64) (Ticket, error)
	Save(ctx context.Context, ticket Ticket) error
	Delete(ctx context.Context, id int64) error
	// FindByOrder возвращает неудалённый тикет заказа.
	FindByOrder(ctx context.Context, orderID int64) (Ticket, error)
	// List возвращает неудалённые тикеты по убыванию ID; resolved != nil фильтрует по состоянию.
	List(ctx context.Context, page Page, resolved *bool) ([]Ticket, error)
	// ListByCustomer возвращает неудалённые тикеты клиента по убыванию ID.
	ListByCustomer(ctx context.Context, customerID int64, page Page) ([]Ticket, error)
}
