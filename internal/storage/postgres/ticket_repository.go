package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const ticketColumns = `id, order_id, customer_id, message, created_at, resolved, deleted`

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository создаёт PostgreSQL-реализацию TicketRepository.
func NewTicketRepository(store *Store) domain.TicketRepository {
	return &ticketRepository{db: store.DB()}
}

func scanTicket(row rowScanner) (domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.OrderID, &t.CustomerID, &t.Message, &t.CreatedAt, &t.Resolved, &t.Deleted); err != nil {
		return domain.Ticket{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *ticketRepository) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO tickets (order_id, customer_id, message, created_at, resolved, deleted)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, t.OrderID, t.CustomerID, t.Message, t.CreatedAt, t.Resolved, t.Deleted).Scan(&t.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.Ticket{}, &domain.AlreadyExistsError{Entity: domain.EntityTicket, OrderID: t.OrderID}
		}
		return domain.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepository) Get(ctx context.Context, id int64) (domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t, err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("select ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepository) Save(ctx context.Context, t domain.Ticket) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "update ticket", `
		UPDATE tickets
		SET message = $2, resolved = $3, deleted = $4
		WHERE id = $1
	`, t.ID, t.Message, t.Resolved, t.Deleted)
}

// Delete помечает тикет удалённым и одновременно решённым.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "soft-delete ticket",
		`UPDATE tickets SET deleted = TRUE, resolved = TRUE WHERE id = $1`, id)
}

func (r *ticketRepository) FindByOrder(ctx context.Context, orderID int64) (domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t, err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1 AND NOT deleted`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("select order ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepository) List(ctx context.Context, page domain.Page, resolved *bool) ([]domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var filter sql.NullBool
	if resolved != nil {
		filter = sql.NullBool{Bool: *resolved, Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE NOT deleted AND ($1::boolean IS NULL OR resolved = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return collect(rows, "ticket", scanTicket)
}

func (r *ticketRepository) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE customer_id = $1 AND NOT deleted
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, customerID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list customer tickets: %w", err)
	}
	return collect(rows, "ticket", scanTicket)
}

var _ domain.TicketRepository = (*ticketRepository)(nil)
