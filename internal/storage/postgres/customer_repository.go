package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

const customerColumns = `id, name, document, status, type, credit_score, password_hash, user_id, deleted, created_at, updated_at`

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var (
		c   domain.Customer
		typ int
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Status, &typ, &c.CreditScore,
		&c.PasswordHash, &c.UserID, &c.Deleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Customer{}, err
	}
	t, err := domain.CustomerTypeFromCode(typ)
	if err != nil {
		return domain.Customer{}, corruptRow("customer", c.ID, err)
	}
	c.Type = t
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (
			name, document, status, type, credit_score, password_hash, user_id, deleted, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, c.Name, c.Document, c.Status, c.Type.Code(), c.CreditScore, c.PasswordHash,
		c.UserID, c.Deleted, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, &domain.AlreadyExistsError{Entity: domain.EntityCustomer, UserID: c.UserID}
		}
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	return r.getBy(ctx, "id", id)
}

// FindByUser ищет клиента пользователя, включая удалённого.
func (r *customerRepository) FindByUser(ctx context.Context, userID int64) (domain.Customer, error) {
	return r.getBy(ctx, "user_id", userID)
}

func (r *customerRepository) getBy(ctx context.Context, column string, value int64) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("select customer by %s: %w", column, err)
	}
	return c, nil
}

func (r *customerRepository) Save(ctx context.Context, c domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return execAffected(ctx, r.db, "update customer", `
		UPDATE customers
		SET name = $2, document = $3, status = $4, type = $5, credit_score = $6,
		    password_hash = $7, deleted = $8, updated_at = $9
		WHERE id = $1
	`, c.ID, c.Name, c.Document, c.Status, c.Type.Code(), c.CreditScore, c.PasswordHash, c.Deleted, c.UpdatedAt)
}

// Delete выполняет переход в удалённое состояние целиком в одном UPDATE.
func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	c.MarkDeleted()
	return r.Save(ctx, c)
}

func (r *customerRepository) List(ctx context.Context, page domain.Page) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE NOT deleted
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return collect(rows, "customer", scanCustomer)
}

var _ domain.CustomerRepository = (*customerRepository)(nil)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	authorities, err := encodeAuthorities(u.Authorities)
	if err != nil {
		return domain.User{}, err
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, authorities, customer_id, deleted)
		VALUES ($1,$2,$3,NULLIF($4, 0),$5)
		RETURNING id
	`, u.Email, u.PasswordHash, authorities, u.CustomerID, u.Deleted).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, &domain.ValidationError{Fields: []string{"Email"}, Reason: "email already registered"}
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		u           domain.User
		authorities []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, authorities, COALESCE(customer_id, 0), deleted
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &authorities, &u.CustomerID, &u.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	if u.Authorities, err = decodeAuthorities(authorities); err != nil {
		return domain.User{}, corruptRow("user", u.ID, err)
	}
	return u, nil
}

func (r *userRepository) Save(ctx context.Context, u domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	authorities, err := encodeAuthorities(u.Authorities)
	if err != nil {
		return err
	}
	return execAffected(ctx, r.db, "update user", `
		UPDATE users
		SET email = $2, password_hash = $3, authorities = $4, customer_id = NULLIF($5, 0), deleted = $6
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, authorities, u.CustomerID, u.Deleted)
}

func encodeAuthorities(list []domain.Authority) ([]byte, error) {
	if list == nil {
		list = []domain.Authority{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode user authorities: %w", err)
	}
	return data, nil
}

func decodeAuthorities(data []byte) ([]domain.Authority, error) {
	var codes []int
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("authorities: %w", err)
	}
	list := make([]domain.Authority, 0, len(codes))
	for _, code := range codes {
		a, err := domain.AuthorityFromCode(code)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
