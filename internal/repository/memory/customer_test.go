package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

func seedCustomer(brokerID uuid.UUID, number, first, last, street, zip string) *entity.Customer {
	return &entity.Customer{
		BrokerID:  brokerID,
		Number:    number,
		FirstName: first,
		LastName:  last,
		Street:    street,
		ZipCode:   zip,
	}
}

func TestCustomerStoreDuplicateIdentity(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	require.NoError(t, s.Create(ctx, seedCustomer(brokerID, "2026-000001", "Max", "Mustermann", "Hauptstr. 1", "12345")))

	dup := seedCustomer(brokerID, "2026-000002", " max", "MUSTERMANN", "Hauptstr.  1", "12345")
	assert.ErrorIs(t, s.Create(ctx, dup), repository.ErrDuplicateIdentity)

	// Same identity under another broker is a different customer.
	assert.NoError(t, s.Create(ctx, seedCustomer(uuid.New(), "2026-000003", "Max", "Mustermann", "Hauptstr. 1", "12345")))
}

func TestCustomerStoreDuplicateNumber(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	require.NoError(t, s.Create(ctx, seedCustomer(brokerID, "2026-000001", "Max", "Mustermann", "Hauptstr. 1", "12345")))

	other := seedCustomer(brokerID, "2026-000001", "Erika", "Beispiel", "Nebenweg 2", "54321")
	assert.ErrorIs(t, s.Create(ctx, other), repository.ErrDuplicateNumber)
}

func TestCustomerStoreMaxSequence(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	seq, err := s.MaxSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, seq)

	require.NoError(t, s.Create(ctx, seedCustomer(brokerID, "2026-000009", "Max", "Mustermann", "Hauptstr. 1", "12345")))
	require.NoError(t, s.Create(ctx, seedCustomer(brokerID, "2025-000100", "Erika", "Beispiel", "Nebenweg 2", "54321")))

	seq, err = s.MaxSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 9, seq)
}

func TestCustomerStoreFindByAddressNormalizes(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	require.NoError(t, s.Create(ctx, seedCustomer(brokerID, "2026-000001", "Max", "Mustermann", "Hauptstr. 1", "12345")))

	hits, err := s.FindByAddress(ctx, brokerID, "HAUPTSTR.  1", "12345")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Mustermann", hits[0].LastName)
}

func TestCustomerStoreSearchTokensAnd(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	max := seedCustomer(brokerID, "2026-000001", "Max", "Mustermann", "Hauptstr. 1", "12345")
	max.City = "Musterstadt"
	require.NoError(t, s.Create(ctx, max))
	erika := seedCustomer(brokerID, "2026-000002", "Erika", "Beispiel", "Nebenweg 2", "54321")
	erika.City = "Kleinstadt"
	require.NoError(t, s.Create(ctx, erika))

	hits, err := s.Search(ctx, brokerID, "erika 54321")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Beispiel", hits[0].LastName)

	hits, err = s.Search(ctx, brokerID, "erika musterstadt")
	require.NoError(t, err)
	assert.Empty(t, hits)

	all, err := s.Search(ctx, brokerID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
