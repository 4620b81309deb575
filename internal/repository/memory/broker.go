package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// Ensure BrokerStore implements the interface.
var _ repository.BrokerRepository = (*BrokerStore)(nil)

// BrokerStore is an in-memory implementation of BrokerRepository.
type BrokerStore struct {
	mu      sync.RWMutex
	brokers map[uuid.UUID]entity.Broker
	bySlug  map[string]uuid.UUID
}

// NewBrokerStore creates a new in-memory broker store.
func NewBrokerStore() *BrokerStore {
	return &BrokerStore{
		brokers: make(map[uuid.UUID]entity.Broker),
		bySlug:  make(map[string]uuid.UUID),
	}
}

func (s *BrokerStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brokers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *BrokerStore) GetBySlug(_ context.Context, slug string) (*entity.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b := s.brokers[id]
	return &b, nil
}

func (s *BrokerStore) Create(_ context.Context, b *entity.Broker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySlug[b.Slug]; taken {
		return repository.ErrDuplicateSlug
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.brokers[b.ID] = *b
	s.bySlug[b.Slug] = b.ID
	return nil
}

func (s *BrokerStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.brokers[id]
	return ok, nil
}
