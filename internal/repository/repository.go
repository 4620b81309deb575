package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

// Store-level sentinel errors. Uniqueness violations are split by
// constraint so the resolver can recover the identity race specifically
// and retry number collisions separately.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateIdentity = errors.New("customer identity already exists")
	ErrDuplicateNumber   = errors.New("customer number already taken")
	ErrDuplicateSlug     = errors.New("broker slug already exists")
)

// IdentityFilter is an exact-field lookup; empty fields are ignored.
// Values are compared against their normalized form.
type IdentityFilter struct {
	FirstName string
	LastName  string
	ZipCode   string
	Street    string
}

// IsEmpty reports whether no field would constrain the lookup.
func (f IdentityFilter) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == "" && f.ZipCode == "" && f.Street == ""
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// FindByAddress returns all customers of the broker at the exact
	// (case-insensitive) street and zip.
	FindByAddress(ctx context.Context, brokerID uuid.UUID, street, zipCode string) ([]*entity.Customer, error)
	// FindByIdentity returns the customer matching every non-empty
	// filter field, or ErrNotFound.
	FindByIdentity(ctx context.Context, brokerID uuid.UUID, filter IdentityFilter) (*entity.Customer, error)
	// Create inserts a new customer. Returns ErrDuplicateIdentity when
	// the identity tuple is already taken within the broker and
	// ErrDuplicateNumber when the customer number collided.
	Create(ctx context.Context, customer *entity.Customer) error
	// MaxSequence returns the highest issued customer-number sequence
	// for a calendar year, 0 if none.
	MaxSequence(ctx context.Context, year int) (int, error)
	// Search filters a broker's customers with AND-ed free-text tokens
	// over name, email, zip, city and customer number.
	Search(ctx context.Context, brokerID uuid.UUID, query string) ([]*entity.Customer, error)
	List(ctx context.Context, brokerID uuid.UUID) ([]*entity.Customer, error)
}

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	Create(ctx context.Context, document *entity.Document) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Document, error)
	// ListUnassigned returns the broker's documents without a customer,
	// oldest first, for manual triage.
	ListUnassigned(ctx context.Context, brokerID uuid.UUID) ([]*entity.Document, error)
}

type BrokerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Broker, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Broker, error)
	Create(ctx context.Context, broker *entity.Broker) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
