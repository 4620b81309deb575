package extract

import (
	"regexp"
	"strings"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

var (
	// Address block:
	//   Herr/Frau <Name>
	//   <Street>
	//   <ZIP> <City>
	reAddressBlock = regexp.MustCompile(`(?m)^(Herr|Frau) +([^\n]+)\n([A-ZÄÖÜ][^\n]+)\n(\d{5}) +([A-Za-zÄÖÜäöüß ]+) *$`)

	// Fallback greeting line; yields only a salutation and a single
	// name token, which is usually the last name.
	reGreeting = regexp.MustCompile(`Sehr geehrter? (Herr|Frau) ([A-ZÄÖÜ][^\s,]+)`)

	// Policy number, e.g. "K 177-332804/1".
	rePolicyNumber = regexp.MustCompile(`\bK ?\d{3}-\d{6}/\d+\b`)

	// German license plate, e.g. "N-AB 1234".
	reLicensePlate = regexp.MustCompile(`\b[A-Z]{1,3}-[A-Z]{1,2} ?\d{1,4}\b`)
)

// Parse normalizes raw page text and runs every sub-extractor over it.
// Sub-extractors are independent: a miss leaves its fields empty and
// never fails the others. Malformed input degrades, it does not error.
func Parse(raw string) entity.ExtractedFields {
	normalized := Normalize(raw)

	fields := entity.ExtractedFields{
		RawText:        raw,
		NormalizedText: normalized,
		Country:        "Germany",
		PolicyNumbers:  policyNumbers(normalized),
		LicensePlates:  licensePlates(normalized),
		Category:       DetectCategory(normalized),
	}

	parseAddress(normalized, &fields)
	return fields
}

func parseAddress(text string, fields *entity.ExtractedFields) {
	if m := reAddressBlock.FindStringSubmatch(text); m != nil {
		fields.Salutation = entity.Salutation(m[1])
		fields.FirstName, fields.LastName = splitName(strings.TrimSpace(m[2]))
		fields.Street = strings.TrimSpace(m[3])
		fields.ZipCode = m[4]
		fields.City = strings.TrimSpace(m[5])
		return
	}

	// Greeting lines carry no address and typically only the last name.
	if m := reGreeting.FindStringSubmatch(text); m != nil {
		fields.Salutation = entity.Salutation(m[1])
		fields.LastName = m[2]
	}
}

// splitName treats the first token as the first name and everything
// after it as the last name.
func splitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func policyNumbers(text string) []string {
	return dedupe(rePolicyNumber.FindAllString(text, -1))
}

func licensePlates(text string) []string {
	return dedupe(reLicensePlate.FindAllString(text, -1))
}

// dedupe keeps first occurrences in document order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
