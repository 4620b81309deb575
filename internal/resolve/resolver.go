// Package resolve maps extracted identity fields onto the customer
// population: match an existing customer, create a new one, or refuse
// with an ambiguous/unresolved outcome when guessing would be wrong.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// Outcome tags a resolution result. Ambiguous and unresolved are
// expected domain outcomes, not errors.
type Outcome string

const (
	OutcomeMatched    Outcome = "MATCHED"
	OutcomeCreated    Outcome = "CREATED"
	OutcomeAmbiguous  Outcome = "AMBIGUOUS"
	OutcomeUnresolved Outcome = "UNRESOLVED"
)

// Resolution is the tagged result of one resolution attempt.
type Resolution struct {
	Outcome  Outcome
	Customer *entity.Customer // set for Matched and Created
	Created  bool
	// Candidates is populated for Ambiguous so a human can choose.
	Candidates []entity.Candidate
	// Reason explains an Unresolved outcome.
	Reason string
}

// maxNumberRetries bounds how often a customer-number collision is
// retried with a freshly computed sequence.
const maxNumberRetries = 5

type Resolver struct {
	customers repository.CustomerRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewResolver(customers repository.CustomerRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		customers: customers,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for customer-number years. Tests
// pin it so sequences stay deterministic across year boundaries.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve implements the matching policy, in order:
//  1. no usable name AND no usable address -> unresolved, never guess
//  2. address present -> exact address match within the broker, name
//     ignored; one hit resolves, several hits are ambiguous
//  3. exact lookup on whichever identity fields are non-empty
//  4. create, recovering a concurrent identical insert as a match
func (r *Resolver) Resolve(ctx context.Context, brokerID uuid.UUID, f *entity.ExtractedFields) (Resolution, error) {
	hasName := f.HasName()
	hasAddress := f.HasAddress()

	if !hasName && !hasAddress {
		r.logger.Info("resolution skipped: no usable name or address", "broker_id", brokerID)
		return Resolution{
			Outcome: OutcomeUnresolved,
			Reason:  "not enough reliable data to match or create a customer",
		}, nil
	}

	if hasAddress {
		candidates, err := r.customers.FindByAddress(ctx, brokerID, f.Street, f.ZipCode)
		if err != nil {
			return Resolution{}, fmt.Errorf("address lookup: %w", err)
		}
		switch len(candidates) {
		case 0:
			// fall through to the exact lookup
		case 1:
			// Name mismatches are tolerated here: the address is the
			// OCR-robust signal in this domain.
			r.logger.Info("customer matched by address", "broker_id", brokerID, "customer_id", candidates[0].ID)
			return Resolution{Outcome: OutcomeMatched, Customer: candidates[0]}, nil
		default:
			list := make([]entity.Candidate, len(candidates))
			for i, c := range candidates {
				list[i] = entity.CandidateOf(c)
			}
			r.logger.Info("resolution ambiguous", "broker_id", brokerID, "candidates", len(list))
			return Resolution{Outcome: OutcomeAmbiguous, Candidates: list}, nil
		}
	}

	filter := repository.IdentityFilter{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		ZipCode:   f.ZipCode,
		Street:    f.Street,
	}

	existing, err := r.customers.FindByIdentity(ctx, brokerID, filter)
	if err == nil {
		r.logger.Info("customer matched by identity fields", "broker_id", brokerID, "customer_id", existing.ID)
		return Resolution{Outcome: OutcomeMatched, Customer: existing}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Resolution{}, fmt.Errorf("identity lookup: %w", err)
	}

	return r.create(ctx, brokerID, f, filter)
}

// create inserts a new customer. The identity uniqueness constraint is
// the duplicate guard: when a concurrent request wins the race, the
// conflict is recovered by re-fetching and returning the existing row.
func (r *Resolver) create(ctx context.Context, brokerID uuid.UUID, f *entity.ExtractedFields, filter repository.IdentityFilter) (Resolution, error) {
	year := r.now().Year()

	for attempt := 0; ; attempt++ {
		maxSeq, err := r.customers.MaxSequence(ctx, year)
		if err != nil {
			return Resolution{}, fmt.Errorf("next customer number: %w", err)
		}

		country := f.Country
		if country == "" {
			country = "Germany"
		}
		customer := &entity.Customer{
			BrokerID:     brokerID,
			Number:       entity.FormatCustomerNumber(year, maxSeq+1),
			ActiveStatus: string(constants.ContractActive),
			Salutation:   string(f.Salutation),
			FirstName:    f.FirstName,
			LastName:     f.LastName,
			Street:       f.Street,
			ZipCode:      f.ZipCode,
			City:         f.City,
			Country:      country,
		}

		err = r.customers.Create(ctx, customer)
		switch {
		case err == nil:
			r.logger.Info("customer created", "broker_id", brokerID, "customer_id", customer.ID, "number", customer.Number)
			return Resolution{Outcome: OutcomeCreated, Customer: customer, Created: true}, nil

		case errors.Is(err, repository.ErrDuplicateIdentity):
			// Lost the race against an identical insert: the other row
			// is the customer, return it as a match.
			existing, ferr := r.customers.FindByIdentity(ctx, brokerID, filter)
			if ferr != nil {
				return Resolution{}, fmt.Errorf("re-fetch after identity conflict: %w", ferr)
			}
			r.logger.Info("identity conflict recovered", "broker_id", brokerID, "customer_id", existing.ID)
			return Resolution{Outcome: OutcomeMatched, Customer: existing}, nil

		case errors.Is(err, repository.ErrDuplicateNumber):
			// Sequence raced with another creation; recompute. Gaps are
			// acceptable, duplicates are not.
			if attempt >= maxNumberRetries {
				return Resolution{}, fmt.Errorf("customer number contention: %w", err)
			}

		default:
			return Resolution{}, fmt.Errorf("create customer: %w", err)
		}
	}
}
