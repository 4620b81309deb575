package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

type brokerStore struct {
	store *Store
}

var _ BrokerRepository = (*brokerStore)(nil)

const brokerColumns = `id, name, slug, created_at`

func (r *brokerStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Broker, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+brokerColumns+` FROM brokers WHERE id = ?`), id)
	return scanBroker(row)
}

func (r *brokerStore) GetBySlug(ctx context.Context, slug string) (*entity.Broker, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+brokerColumns+` FROM brokers WHERE slug = ?`), slug)
	return scanBroker(row)
}

func (r *brokerStore) Create(ctx context.Context, b *entity.Broker) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.store.db.ExecContext(ctx, r.store.rebind(
		`INSERT INTO brokers (id, name, slug, created_at) VALUES (?, ?, ?, ?)`),
		b.ID, b.Name, b.Slug, b.CreatedAt)
	if err != nil {
		r.store.logger.Error("failed to create broker", "slug", b.Slug, "error", err)
		return r.store.mapUniqueViolation(err)
	}
	return nil
}

func (r *brokerStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		`SELECT COUNT(1) FROM brokers WHERE id = ?`), id)
	if err := row.Scan(&n); err != nil {
		r.store.logger.Error("failed to check broker existence", "broker_id", id, "error", err)
		return false, err
	}
	return n > 0, nil
}

func scanBroker(row rowScanner) (*entity.Broker, error) {
	var b entity.Broker
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
