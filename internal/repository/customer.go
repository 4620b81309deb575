package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

type customerStore struct {
	store *Store
}

var _ CustomerRepository = (*customerStore)(nil)

const customerColumns = `id, broker_id, customer_number, active_status, salutation,
	first_name, last_name, email, phone, street, zip_code, city, country,
	created_at, updated_at`

func (r *customerStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`), id)
	return scanCustomer(row)
}

func (r *customerStore) FindByAddress(ctx context.Context, brokerID uuid.UUID, street, zipCode string) ([]*entity.Customer, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT `+customerColumns+` FROM customers
		 WHERE broker_id = ? AND street_norm = ? AND zip_norm = ?
		 ORDER BY created_at`),
		brokerID, entity.NormalizeIdentityField(street), entity.NormalizeIdentityField(zipCode))
	if err != nil {
		r.store.logger.Error("failed to find customers by address", "broker_id", brokerID, "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (r *customerStore) FindByIdentity(ctx context.Context, brokerID uuid.UUID, filter IdentityFilter) (*entity.Customer, error) {
	if filter.IsEmpty() {
		return nil, ErrNotFound
	}

	where := []string{"broker_id = ?"}
	args := []any{brokerID}
	for col, v := range map[string]string{
		"first_name_norm": filter.FirstName,
		"last_name_norm":  filter.LastName,
		"zip_norm":        filter.ZipCode,
		"street_norm":     filter.Street,
	} {
		if v == "" {
			continue
		}
		where = append(where, col+" = ?")
		args = append(args, entity.NormalizeIdentityField(v))
	}

	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+customerColumns+` FROM customers WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at LIMIT 1`), args...)
	return scanCustomer(row)
}

func (r *customerStore) Create(ctx context.Context, c *entity.Customer) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	year, seq, ok := entity.ParseCustomerNumber(c.Number)
	if !ok {
		return fmt.Errorf("malformed customer number %q", c.Number)
	}

	_, err := r.store.db.ExecContext(ctx, r.store.rebind(
		`INSERT INTO customers (
			id, broker_id, customer_number, number_year, number_seq,
			active_status, salutation, first_name, last_name, email, phone,
			street, zip_code, city, country,
			first_name_norm, last_name_norm, zip_norm, street_norm,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.BrokerID, c.Number, year, seq,
		c.ActiveStatus, c.Salutation, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Street, c.ZipCode, c.City, c.Country,
		entity.NormalizeIdentityField(c.FirstName), entity.NormalizeIdentityField(c.LastName),
		entity.NormalizeIdentityField(c.ZipCode), entity.NormalizeIdentityField(c.Street),
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		mapped := r.store.mapUniqueViolation(err)
		if errors.Is(mapped, ErrDuplicateIdentity) || errors.Is(mapped, ErrDuplicateNumber) {
			// expected under concurrent creation; callers recover
			r.store.logger.Debug("customer insert conflicted", "broker_id", c.BrokerID, "number", c.Number, "error", mapped)
		} else {
			r.store.logger.Error("failed to create customer", "broker_id", c.BrokerID, "number", c.Number, "error", err)
		}
		return mapped
	}
	return nil
}

func (r *customerStore) MaxSequence(ctx context.Context, year int) (int, error) {
	var maxSeq int
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT COALESCE(MAX(number_seq), 0) FROM customers WHERE number_year = ?`), year)
	if err := row.Scan(&maxSeq); err != nil {
		r.store.logger.Error("failed to read max customer sequence", "year", year, "error", err)
		return 0, err
	}
	return maxSeq, nil
}

func (r *customerStore) Search(ctx context.Context, brokerID uuid.UUID, query string) ([]*entity.Customer, error) {
	where := []string{"broker_id = ?"}
	args := []any{brokerID}
	for _, token := range strings.Fields(query) {
		pattern := "%" + strings.ToLower(token) + "%"
		where = append(where, `(lower(first_name) LIKE ? OR lower(last_name) LIKE ?
			OR lower(email) LIKE ? OR lower(zip_code) LIKE ? OR lower(city) LIKE ?
			OR lower(customer_number) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern, pattern, pattern)
	}

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT `+customerColumns+` FROM customers WHERE `+strings.Join(where, " AND ")+
			` ORDER BY customer_number`), args...)
	if err != nil {
		r.store.logger.Error("failed to search customers", "broker_id", brokerID, "query", query, "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (r *customerStore) List(ctx context.Context, brokerID uuid.UUID) ([]*entity.Customer, error) {
	return r.Search(ctx, brokerID, "")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.ID, &c.BrokerID, &c.Number, &c.ActiveStatus, &c.Salutation,
		&c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Street, &c.ZipCode, &c.City, &c.Country,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCustomers(rows *sql.Rows) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customers: %w", err)
	}
	return out, nil
}
