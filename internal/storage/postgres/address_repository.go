package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const addressColumns = `id, street, house_number, neighborhood, zip_code, country, type, customer_id, deleted`

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository создаёт PostgreSQL-реализацию AddressRepository.
func NewAddressRepository(store *Store) domain.AddressRepository {
	return &addressRepository{db: store.DB()}
}

func scanAddress(row rowScanner) (domain.Address, error) {
	var (
		a   domain.Address
		typ int
	)
	if err := row.Scan(&a.ID, &a.Street, &a.HouseNumber, &a.Neighborhood, &a.ZipCode,
		&a.Country, &typ, &a.CustomerID, &a.Deleted); err != nil {
		return domain.Address{}, err
	}
	t, err := domain.AddressTypeFromCode(typ)
	if err != nil {
		return domain.Address{}, corruptRow("address", a.ID, err)
	}
	a.Type = t
	return a, nil
}

func (r *addressRepository) Create(ctx context.Context, a domain.Address) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO addresses (street, house_number, neighborhood, zip_code, country, type, customer_id, deleted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, a.Street, a.HouseNumber, a.Neighborhood, a.ZipCode, a.Country, a.Type.Code(), a.CustomerID, a.Deleted,
	).Scan(&a.ID); err != nil {
		return domain.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}

func (r *addressRepository) Get(ctx context.Context, id int64) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}
	return a, nil
}

// Save перезаписывает содержимое адреса; владелец не меняется.
func (r *addressRepository) Save(ctx context.Context, a domain.Address) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "update address", `
		UPDATE addresses
		SET street = $2, house_number = $3, neighborhood = $4, zip_code = $5,
		    country = $6, type = $7, deleted = $8
		WHERE id = $1
	`, a.ID, a.Street, a.HouseNumber, a.Neighborhood, a.ZipCode, a.Country, a.Type.Code(), a.Deleted)
}

func (r *addressRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "soft-delete address", `UPDATE addresses SET deleted = TRUE WHERE id = $1`, id)
}

func (r *addressRepository) List(ctx context.Context, page domain.Page) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE NOT deleted
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return collect(rows, "address", scanAddress)
}

func (r *addressRepository) ListByCustomer(ctx context.Context, customerID int64, page domain.Page) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE customer_id = $1 AND NOT deleted
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, customerID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list customer addresses: %w", err)
	}
	return collect(rows, "address", scanAddress)
}

var _ domain.AddressRepository = (*addressRepository)(nil)
