// Package memory holds in-memory repository implementations used by
// tests and dry runs. Uniqueness semantics mirror the SQL store,
// including the split between identity and number conflicts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// Ensure CustomerStore implements the interface.
var _ repository.CustomerRepository = (*CustomerStore)(nil)

// CustomerStore is an in-memory implementation of CustomerRepository.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]entity.Customer
	byID      []uuid.UUID // insertion order
	identity  map[identityKey]uuid.UUID
	numbers   map[string]uuid.UUID
}

type identityKey struct {
	broker uuid.UUID
	id     entity.Identity
}

// NewCustomerStore creates a new in-memory customer store.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{
		customers: make(map[uuid.UUID]entity.Customer),
		identity:  make(map[identityKey]uuid.UUID),
		numbers:   make(map[string]uuid.UUID),
	}
}

func (s *CustomerStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *CustomerStore) FindByAddress(_ context.Context, brokerID uuid.UUID, street, zipCode string) ([]*entity.Customer, error) {
	streetNorm := entity.NormalizeIdentityField(street)
	zipNorm := entity.NormalizeIdentityField(zipCode)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Customer
	for _, id := range s.byID {
		c := s.customers[id]
		if c.BrokerID != brokerID {
			continue
		}
		if entity.NormalizeIdentityField(c.Street) == streetNorm &&
			entity.NormalizeIdentityField(c.ZipCode) == zipNorm {
			cc := c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (s *CustomerStore) FindByIdentity(_ context.Context, brokerID uuid.UUID, filter repository.IdentityFilter) (*entity.Customer, error) {
	if filter.IsEmpty() {
		return nil, repository.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.byID {
		c := s.customers[id]
		if c.BrokerID != brokerID {
			continue
		}
		if matchField(filter.FirstName, c.FirstName) &&
			matchField(filter.LastName, c.LastName) &&
			matchField(filter.ZipCode, c.ZipCode) &&
			matchField(filter.Street, c.Street) {
			cc := c
			return &cc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *CustomerStore) Create(_ context.Context, c *entity.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey{broker: c.BrokerID, id: c.Identity()}
	if _, taken := s.identity[key]; taken {
		return repository.ErrDuplicateIdentity
	}
	if _, taken := s.numbers[c.Number]; taken {
		return repository.ErrDuplicateNumber
	}

	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	s.customers[c.ID] = *c
	s.byID = append(s.byID, c.ID)
	s.identity[key] = c.ID
	s.numbers[c.Number] = c.ID
	return nil
}

func (s *CustomerStore) MaxSequence(_ context.Context, year int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxSeq := 0
	for number := range s.numbers {
		y, seq, ok := entity.ParseCustomerNumber(number)
		if ok && y == year && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (s *CustomerStore) Search(_ context.Context, brokerID uuid.UUID, query string) ([]*entity.Customer, error) {
	tokens := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Customer
	for _, id := range s.byID {
		c := s.customers[id]
		if c.BrokerID != brokerID {
			continue
		}
		if matchesTokens(&c, tokens) {
			cc := c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *CustomerStore) List(ctx context.Context, brokerID uuid.UUID) ([]*entity.Customer, error) {
	return s.Search(ctx, brokerID, "")
}

func matchField(want, have string) bool {
	if want == "" {
		return true
	}
	return entity.NormalizeIdentityField(want) == entity.NormalizeIdentityField(have)
}

func matchesTokens(c *entity.Customer, tokens []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		c.FirstName, c.LastName, c.Email, c.ZipCode, c.City, c.Number,
	}, "\n"))
	for _, t := range tokens {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
