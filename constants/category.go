package constants

import (
	"strings"
)

// Category is a contract category key as stored on documents.
type Category string

const (
	Vehicle           Category = "kfz"
	HouseholdContents Category = "hausrat"
	PersonalLiability Category = "haftpflicht"
	LegalProtection   Category = "rechtsschutz"
	Building          Category = "wohngebaeude"
	Accident          Category = "unfall"
	Life              Category = "lebensversicherung"
	Disability        Category = "berufsunfaehigkeit"
	Health            Category = "krankenversicherung"
	Pet               Category = "tierversicherung"
	Travel            Category = "reise"
	Unknown           Category = ""
)

var allCategories = []Category{
	Vehicle,
	HouseholdContents,
	PersonalLiability,
	LegalProtection,
	Building,
	Accident,
	Life,
	Disability,
	Health,
	Pet,
	Travel,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form input onto a category key.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unknown, false
	}
	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return Unknown, false
}
