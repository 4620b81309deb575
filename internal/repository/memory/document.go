package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// Ensure DocumentStore implements the interface.
var _ repository.DocumentRepository = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of DocumentRepository.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]entity.Document
	byID      []uuid.UUID
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[uuid.UUID]entity.Document),
	}
}

func (s *DocumentStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s *DocumentStore) Create(_ context.Context, d *entity.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.documents[d.ID] = *d
	s.byID = append(s.byID, d.ID)
	return nil
}

func (s *DocumentStore) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Document
	for _, id := range s.byID {
		d := s.documents[id]
		if d.CustomerID != nil && *d.CustomerID == customerID {
			dd := d
			out = append(out, &dd)
		}
	}
	return out, nil
}

func (s *DocumentStore) ListUnassigned(_ context.Context, brokerID uuid.UUID) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Document
	for _, id := range s.byID {
		d := s.documents[id]
		if d.BrokerID == brokerID && d.CustomerID == nil {
			dd := d
			out = append(out, &dd)
		}
	}
	return out, nil
}

// Len reports how many documents the store holds.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
