package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const catalogColumns = `id, name, unit_price, sale_eligible, state`

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

func scanCatalogEntry(row rowScanner) (domain.CatalogEntry, error) {
	var (
		entry domain.CatalogEntry
		state int
	)
	if err := row.Scan(&entry.ID, &entry.Name, &entry.UnitPrice, &entry.SaleEligible, &state); err != nil {
		return domain.CatalogEntry{}, err
	}
	s, err := domain.CatalogStateFromCode(state)
	if err != nil {
		return domain.CatalogEntry{}, corruptRow("catalog entry", entry.ID, err)
	}
	entry.State = s
	return entry, nil
}

func (r *catalogRepository) Create(ctx context.Context, entry domain.CatalogEntry) (domain.CatalogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO catalog_entries (name, unit_price, sale_eligible, state)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, entry.Name, entry.UnitPrice, entry.SaleEligible, entry.State.Code()).Scan(&entry.ID); err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("insert catalog entry: %w", err)
	}
	return entry, nil
}

func (r *catalogRepository) Get(ctx context.Context, id int64) (domain.CatalogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	entry, err := scanCatalogEntry(r.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("select catalog entry: %w", err)
	}
	return entry, nil
}

func (r *catalogRepository) Save(ctx context.Context, entry domain.CatalogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "update catalog entry", `
		UPDATE catalog_entries
		SET name = $2, unit_price = $3, sale_eligible = $4, state = $5
		WHERE id = $1
	`, entry.ID, entry.Name, entry.UnitPrice, entry.SaleEligible, entry.State.Code())
}

// Delete снимает товар с продажи; строка остаётся для истории заказов.
func (r *catalogRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "withdraw catalog entry", `
		UPDATE catalog_entries SET sale_eligible = FALSE WHERE id = $1
	`, id)
}

func (r *catalogRepository) List(ctx context.Context, page domain.Page) ([]domain.CatalogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	return collect(rows, "catalog entry", scanCatalogEntry)
}

func (r *catalogRepository) ListExcluding(ctx context.Context, ids []int64) ([]domain.CatalogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// NULL-массив дал бы пустой результат, поэтому nil заменяется пустым списком.
	if ids == nil {
		ids = []int64{}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE id <> ALL($1::bigint[])
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries excluding ids: %w", err)
	}
	return collect(rows, "catalog entry", scanCatalogEntry)
}

func (r *catalogRepository) CountForSale(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM catalog_entries WHERE sale_eligible`)
}

func (r *catalogRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM catalog_entries`)
}

func (r *catalogRepository) count(ctx context.Context, query string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog entries: %w", err)
	}
	return n, nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
