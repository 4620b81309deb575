package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{
		DSN: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestBroker(t *testing.T, store *Store) *entity.Broker {
	t.Helper()
	b := &entity.Broker{ID: uuid.New(), Name: "Acme Makler", Slug: "acme-" + uuid.NewString()[:8]}
	require.NoError(t, store.Brokers().Create(context.Background(), b))
	return b
}

func testCustomer(brokerID uuid.UUID, number string) *entity.Customer {
	return &entity.Customer{
		BrokerID:     brokerID,
		Number:       number,
		ActiveStatus: string(constants.ContractActive),
		Salutation:   "Herr",
		FirstName:    "Max",
		LastName:     "Mustermann",
		Street:       "Hauptstr. 1",
		ZipCode:      "12345",
		City:         "Musterstadt",
		Country:      "Germany",
	}
}

func TestStoreHealthCheck(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.HealthCheck(context.Background(), time.Second))
}

func TestCustomerCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	c := testCustomer(broker.ID, "2026-000001")
	require.NoError(t, store.Customers().Create(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)

	got, err := store.Customers().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-000001", got.Number)
	assert.Equal(t, "Mustermann", got.LastName)
	assert.Equal(t, broker.ID, got.BrokerID)

	_, err = store.Customers().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerIdentityConflict(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000001")))

	// Same person, different spacing and case, different number.
	dup := testCustomer(broker.ID, "2026-000002")
	dup.FirstName = " max"
	dup.LastName = "MUSTERMANN"
	dup.Street = "Hauptstr.  1"
	err := store.Customers().Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestCustomerNumberConflict(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000001")))

	other := testCustomer(broker.ID, "2026-000001")
	other.FirstName = "Erika"
	other.Street = "Nebenweg 2"
	other.ZipCode = "54321"
	err := store.Customers().Create(ctx, other)
	assert.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestCustomerIdentityScopedPerBroker(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := newTestBroker(t, store)
	b := newTestBroker(t, store)

	require.NoError(t, store.Customers().Create(ctx, testCustomer(a.ID, "2026-000001")))
	assert.NoError(t, store.Customers().Create(ctx, testCustomer(b.ID, "2026-000002")))
}

func TestCustomerFindByAddress(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000001")))

	hits, err := store.Customers().FindByAddress(ctx, broker.ID, "hauptstr.   1", "12345")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2026-000001", hits[0].Number)

	hits, err = store.Customers().FindByAddress(ctx, broker.ID, "Andere Str. 9", "12345")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCustomerFindByIdentityPartialFilter(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000001")))

	got, err := store.Customers().FindByIdentity(ctx, broker.ID, IdentityFilter{
		FirstName: "MAX", LastName: "mustermann",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-000001", got.Number)

	_, err = store.Customers().FindByIdentity(ctx, broker.ID, IdentityFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerMaxSequence(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	seq, err := store.Customers().MaxSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, seq)

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000007")))

	other := testCustomer(broker.ID, "2025-000042")
	other.LastName = "Beispiel"
	require.NoError(t, store.Customers().Create(ctx, other))

	seq, err = store.Customers().MaxSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 7, seq)

	seq, err = store.Customers().MaxSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 42, seq)
}

func TestCustomerSearch(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, testCustomer(broker.ID, "2026-000001")))
	other := testCustomer(broker.ID, "2026-000002")
	other.FirstName = "Erika"
	other.LastName = "Beispiel"
	other.Street = "Nebenweg 2"
	other.ZipCode = "54321"
	other.City = "Kleinstadt"
	require.NoError(t, store.Customers().Create(ctx, other))

	hits, err := store.Customers().Search(ctx, broker.ID, "muster")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Mustermann", hits[0].LastName)

	// Tokens AND together.
	hits, err = store.Customers().Search(ctx, broker.ID, "erika kleinstadt")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Beispiel", hits[0].LastName)

	hits, err = store.Customers().Search(ctx, broker.ID, "erika musterstadt")
	require.NoError(t, err)
	assert.Empty(t, hits)

	all, err := store.Customers().List(ctx, broker.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBrokerSlugConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Brokers().Create(ctx, &entity.Broker{Name: "A", Slug: "acme"}))
	err := store.Brokers().Create(ctx, &entity.Broker{Name: "B", Slug: "acme"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	got, err := store.Brokers().GetBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	ok, err := store.Brokers().Exists(ctx, got.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	c := testCustomer(broker.ID, "2026-000001")
	require.NoError(t, store.Customers().Create(ctx, c))

	doc := &entity.Document{
		BrokerID:       broker.ID,
		CustomerID:     &c.ID,
		FilePath:       "/archive/acme/2026-000001_Mustermann/rechnung.pdf",
		RawText:        "raw",
		NormalizedText: "normalized",
		PolicyNumbers:  []string{"K 177-332804/1"},
		LicensePlates:  []string{"N-AB 1234"},
		Category:       constants.Vehicle,
		Status:         constants.ContractActive,
	}
	require.NoError(t, store.Documents().Create(ctx, doc))

	got, err := store.Documents().GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, c.ID, *got.CustomerID)
	assert.Equal(t, []string{"K 177-332804/1"}, got.PolicyNumbers)
	assert.Equal(t, constants.Vehicle, got.Category)

	byCustomer, err := store.Documents().ListByCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)
}

func TestDocumentUnassigned(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	doc := &entity.Document{
		BrokerID: broker.ID,
		FilePath: "/unassigned/acme/unbekannt.pdf",
		Status:   constants.ContractActive,
	}
	require.NoError(t, store.Documents().Create(ctx, doc))

	unassigned, err := store.Documents().ListUnassigned(ctx, broker.ID)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Nil(t, unassigned[0].CustomerID)
	assert.Equal(t, doc.ID, unassigned[0].ID)
}

func TestDocumentCategoryCoercedOnRead(t *testing.T) {
	store := newTestStore(t)
	broker := newTestBroker(t, store)
	ctx := context.Background()

	doc := &entity.Document{
		BrokerID: broker.ID,
		FilePath: "/unassigned/acme/alt.pdf",
		Category: constants.Vehicle,
		Status:   constants.ContractActive,
	}
	require.NoError(t, store.Documents().Create(ctx, doc))

	// Simulate a row written before the vocabulary settled.
	_, err := store.db.ExecContext(ctx, store.rebind(
		`UPDATE documents SET contract_category = ? WHERE id = ?`), "Kfz-Police", doc.ID)
	require.NoError(t, err)

	got, err := store.Documents().GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.Unknown, got.Category)
}

func TestApplyPoolConfigKeepsDefaults(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://localhost:5432/brokerdocs")
	require.NoError(t, err)
	defMax := pc.MaxConns
	defLifetime := pc.MaxConnLifetime
	defIdle := pc.MaxConnIdleTime

	applyPoolConfig(Config{DSN: "postgres://localhost:5432/brokerdocs"}, pc)
	assert.Equal(t, defMax, pc.MaxConns)
	assert.Equal(t, defLifetime, pc.MaxConnLifetime)
	assert.Equal(t, defIdle, pc.MaxConnIdleTime)
	assert.Equal(t, "brokerdocs", pc.ConnConfig.RuntimeParams["application_name"])

	applyPoolConfig(Config{MaxConns: 7, MaxConnLifetime: time.Hour}, pc)
	assert.EqualValues(t, 7, pc.MaxConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, defIdle, pc.MaxConnIdleTime)
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: dialectPostgres}
	assert.Equal(t, "SELECT $1, $2", s.rebind("SELECT ?, ?"))

	s = &Store{dialect: dialectSQLite}
	assert.Equal(t, "SELECT ?, ?", s.rebind("SELECT ?, ?"))
}
