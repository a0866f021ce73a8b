// Package postgres реализует хранилища бэк-офиса поверх PostgreSQL (pgx stdlib driver).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second

	pgUniqueViolation = "23505"
)

var errStoreNotInitialized = errors.New("postgres store is not initialized")

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все неприменённые up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Repositories собирает все PostgreSQL-хранилища поверх одного подключения.
type Repositories struct {
	Catalog   domain.CatalogRepository
	Addresses domain.AddressRepository
	Customers domain.CustomerRepository
	Users     domain.UserRepository
	Orders    domain.OrderRepository
	Lines     domain.OrderLineRepository
	Tickets   domain.TicketRepository
	Outbox    domain.OutboxRepository
	Timeline  domain.TimelineRepository
}

// NewRepositories создаёт хранилища для всех сущностей.
func NewRepositories(store *Store) Repositories {
	return Repositories{
		Catalog:   NewCatalogRepository(store),
		Addresses: NewAddressRepository(store),
		Customers: NewCustomerRepository(store),
		Users:     NewUserRepository(store),
		Orders:    NewOrderRepository(store),
		Lines:     NewOrderLineRepository(store),
		Tickets:   NewTicketRepository(store),
		Outbox:    NewOutboxRepository(store),
		Timeline:  NewTimelineRepository(store),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// corruptRow сообщает о значении в строке, которое не декодируется в доменный тип.
// Такая строка означает повреждение хранилища, поэтому ошибка помечается как Unexpected.
func corruptRow(what string, id int64, err error) error {
	return &domain.UnexpectedError{Err: fmt.Errorf("decode %s %d: %w", what, id, err)}
}

// rowScanner объединяет *sql.Row и *sql.Rows для общих scan-функций.
type rowScanner interface {
	Scan(dest ...any) error
}

// execAffected выполняет UPDATE и возвращает domain.ErrNotFound, если строка не найдена.
func execAffected(ctx context.Context, db *sql.DB, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// collect читает все строки через scan и закрывает rows.
func collect[T any](rows *sql.Rows, what string, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return result, nil
}
