package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer represents a customer for data transfer between layers.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	BrokerID     uuid.UUID `json:"broker_id"`
	Number       string    `json:"customer_number"`
	ActiveStatus string    `json:"active_status,omitempty"`
	Salutation   string    `json:"salutation,omitempty"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Street       string    `json:"street"`
	ZipCode      string    `json:"zip_code"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the normalized uniqueness key for a customer within a
// broker. Two customers with an equal Identity are the same person.
type Identity struct {
	FirstName string
	LastName  string
	ZipCode   string
	Street    string
}

// Identity derives the normalized identity tuple from the stored fields.
func (c *Customer) Identity() Identity {
	return Identity{
		FirstName: NormalizeIdentityField(c.FirstName),
		LastName:  NormalizeIdentityField(c.LastName),
		ZipCode:   NormalizeIdentityField(c.ZipCode),
		Street:    NormalizeIdentityField(c.Street),
	}
}

// NormalizeIdentityField lowercases, trims, and collapses inner
// whitespace so OCR spacing differences cannot split one identity in two.
func NormalizeIdentityField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FormatCustomerNumber renders a sequence as "YYYY-NNNNNN".
func FormatCustomerNumber(year, seq int) string {
	return fmt.Sprintf("%d-%06d", year, seq)
}

// ParseCustomerNumber splits "YYYY-NNNNNN" into its year and sequence.
// ok is false for anything that does not look like a customer number.
func ParseCustomerNumber(number string) (year, seq int, ok bool) {
	head, tail, found := strings.Cut(number, "-")
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(tail)
	if err != nil || seq < 1 {
		return 0, 0, false
	}
	return year, seq, true
}

// Candidate is the shape surfaced to a human when resolution is
// ambiguous: just enough to pick the right person.
type Candidate struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Number    string    `json:"customer_number"`
}

// CandidateOf summarizes a customer for an ambiguity listing.
func CandidateOf(c *Customer) Candidate {
	return Candidate{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Number:    c.Number,
	}
}
