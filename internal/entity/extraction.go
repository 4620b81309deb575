package entity

import (
	"github.com/bkoehler/brokerdocs/constants"
)

// Salutation is the formal address form found in the document.
type Salutation string

const (
	SalutationUnknown Salutation = ""
	SalutationHerr    Salutation = "Herr"
	SalutationFrau    Salutation = "Frau"
)

// ExtractedFields is what the field extractor could read out of one
// document. Missing fields stay empty; that is data, not an error.
// Owned by a single ingestion run and discarded afterwards.
type ExtractedFields struct {
	RawText        string
	NormalizedText string

	Salutation Salutation
	FirstName  string
	LastName   string
	Street     string
	ZipCode    string
	City       string
	Country    string

	PolicyNumbers []string
	LicensePlates []string
	Category      constants.Category
}

// HasName reports whether both name parts were read.
func (f *ExtractedFields) HasName() bool {
	return f.FirstName != "" && f.LastName != ""
}

// HasAddress reports whether street and zip were both read. Address is
// the stronger signal for matching; OCR damages names more often.
func (f *ExtractedFields) HasAddress() bool {
	return f.Street != "" && f.ZipCode != ""
}
