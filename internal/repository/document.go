package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/entity"
)

type documentStore struct {
	store *Store
}

var _ DocumentRepository = (*documentStore)(nil)

const documentColumns = `id, broker_id, customer_id, file_path, raw_text, normalized_text,
	policy_numbers, license_plates, contract_category, contract_status, created_at`

func (r *documentStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`), id)
	return scanDocument(row)
}

func (r *documentStore) Create(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	policies, err := jsonList(d.PolicyNumbers)
	if err != nil {
		return err
	}
	plates, err := jsonList(d.LicensePlates)
	if err != nil {
		return err
	}

	var customerID uuid.NullUUID
	if d.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *d.CustomerID, Valid: true}
	}

	_, err = r.store.db.ExecContext(ctx, r.store.rebind(
		`INSERT INTO documents (
			id, broker_id, customer_id, file_path, raw_text, normalized_text,
			policy_numbers, license_plates, contract_category, contract_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.BrokerID, customerID, d.FilePath, d.RawText, d.NormalizedText,
		policies, plates, string(d.Category), string(d.Status), d.CreatedAt)
	if err != nil {
		r.store.logger.Error("failed to create document", "broker_id", d.BrokerID, "file_path", d.FilePath, "error", err)
		return err
	}
	return nil
}

func (r *documentStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Document, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT `+documentColumns+` FROM documents WHERE customer_id = ? ORDER BY created_at`), customerID)
	if err != nil {
		r.store.logger.Error("failed to list documents by customer", "customer_id", customerID, "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *documentStore) ListUnassigned(ctx context.Context, brokerID uuid.UUID) ([]*entity.Document, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT `+documentColumns+` FROM documents
		 WHERE broker_id = ? AND customer_id IS NULL ORDER BY created_at`), brokerID)
	if err != nil {
		r.store.logger.Error("failed to list unassigned documents", "broker_id", brokerID, "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	var customerID uuid.NullUUID
	var policies, plates []byte
	var category, status string

	err := row.Scan(&d.ID, &d.BrokerID, &customerID, &d.FilePath, &d.RawText, &d.NormalizedText,
		&policies, &plates, &category, &status, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		id := customerID.UUID
		d.CustomerID = &id
	}
	if err := json.Unmarshal(policies, &d.PolicyNumbers); err != nil {
		return nil, fmt.Errorf("decoding policy numbers: %w", err)
	}
	if err := json.Unmarshal(plates, &d.LicensePlates); err != nil {
		return nil, fmt.Errorf("decoding license plates: %w", err)
	}
	// Stored category text is coerced onto the closed vocabulary; rows
	// written by older schema revisions fall back to Unknown.
	d.Category, _ = constants.Canonicalize(category)
	d.Status = constants.ContractStatus(status)
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]*entity.Document, error) {
	var out []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

// jsonList renders a string slice as a JSON array, never null.
func jsonList(in []string) ([]byte, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding list: %w", err)
	}
	return b, nil
}
