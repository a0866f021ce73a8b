package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const orderColumns = `id, customer_id, delivery_address_id, created_at, deleted`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	if err := row.Scan(&order.ID, &order.CustomerID, &order.DeliveryAddressID,
		&order.CreatedAt, &order.Deleted); err != nil {
		return domain.Order{}, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	return order, nil
}

// Create сохраняет только заголовок; позиции пишет OrderLineRepository.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, delivery_address_id, created_at, deleted)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, order.CustomerID, order.DeliveryAddressID, order.CreatedAt, order.Deleted).Scan(&order.ID); err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	order.Lines = nil
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

// Save обновляет только адрес доставки; флаг отмены пишет Delete.
func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "update order", `
		UPDATE orders SET delivery_address_id = $2 WHERE id = $1
	`, order.ID, order.DeliveryAddressID)
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "cancel order", `UPDATE orders SET deleted = TRUE WHERE id = $1`, id)
}

func (r *orderRepository) List(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collect(rows, "order", scanOrder)
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1 AND NOT deleted
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, customerID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	return collect(rows, "order", scanOrder)
}

func (r *orderRepository) CountByState(ctx context.Context, state domain.OrderState) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE deleted = $1`, state == domain.OrderStateCancelled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s orders: %w", state, err)
	}
	return n, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)

type orderLineRepository struct {
	db *sql.DB
}

// NewOrderLineRepository создаёт PostgreSQL-реализацию OrderLineRepository.
func NewOrderLineRepository(store *Store) domain.OrderLineRepository {
	return &orderLineRepository{db: store.DB()}
}

// Save вставляет позицию; повтор той же пары (order_id, entry_id) заменяет предыдущую.
func (r *orderLineRepository) Save(ctx context.Context, line domain.OrderLine) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO order_lines (order_id, entry_id, quantity, discount, total_price)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (order_id, entry_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    discount = EXCLUDED.discount,
		    total_price = EXCLUDED.total_price
	`, line.OrderID, line.EntryID, line.Quantity, line.Discount, line.TotalPrice); err != nil {
		return fmt.Errorf("upsert order line: %w", err)
	}
	return nil
}

func (r *orderLineRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, entry_id, quantity, discount, total_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY entry_id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	return collect(rows, "order line", func(row rowScanner) (domain.OrderLine, error) {
		var line domain.OrderLine
		err := row.Scan(&line.OrderID, &line.EntryID, &line.Quantity, &line.Discount, &line.TotalPrice)
		return line, err
	})
}

// QuantitySold учитывает позиции всех заказов, включая отменённые.
func (r *orderLineRepository) QuantitySold(ctx context.Context) ([]domain.SalesRow, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, SUM(quantity)::bigint
		FROM order_lines
		GROUP BY entry_id
		ORDER BY entry_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sum sold quantity: %w", err)
	}
	return collect(rows, "sales row", func(row rowScanner) (domain.SalesRow, error) {
		var sales domain.SalesRow
		err := row.Scan(&sales.EntryID, &sales.Quantity)
		return sales, err
	})
}

var _ domain.OrderLineRepository = (*orderLineRepository)(nil)
