package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/entity"
)

// BuildFieldsJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// the extracted-fields payload, as a generic map. Empty values are
// legal everywhere; the schema guards shapes, not presence.
func BuildFieldsJSONSchema() map[string]any {
	categories := append([]string{""}, constants.AsStringSlice()...)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"salutation": map[string]any{
				"type": "string",
				"enum": []string{"", string(entity.SalutationHerr), string(entity.SalutationFrau)},
			},
			"first_name": map[string]any{"type": "string"},
			"last_name":  map[string]any{"type": "string"},
			"street":     map[string]any{"type": "string"},
			"zip_code":   map[string]any{"type": "string", "pattern": `^(\d{5})?$`},
			"city":       map[string]any{"type": "string"},
			"country":    map[string]any{"type": "string"},
			"policy_numbers": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "pattern": `^K ?\d{3}-\d{6}/\d+$`},
			},
			"license_plates": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "minLength": 1},
			},
			"contract_category": map[string]any{
				"type": "string",
				"enum": categories,
			},
		},
		"required": []string{"salutation", "zip_code", "policy_numbers", "license_plates", "contract_category"},
	}
}

// fieldsPayload is the wire shape validated against the schema before a
// document row is written.
type fieldsPayload struct {
	Salutation    string   `json:"salutation"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Street        string   `json:"street"`
	ZipCode       string   `json:"zip_code"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	PolicyNumbers []string `json:"policy_numbers"`
	LicensePlates []string `json:"license_plates"`
	Category      string   `json:"contract_category"`
}

// ValidateFields checks an extraction result against the payload schema.
// A failure here means an extractor regressed, not that the document is
// bad; callers treat it as an internal error.
func ValidateFields(f *entity.ExtractedFields) error {
	payload := fieldsPayload{
		Salutation:    string(f.Salutation),
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Street:        f.Street,
		ZipCode:       f.ZipCode,
		City:          f.City,
		Country:       f.Country,
		PolicyNumbers: f.PolicyNumbers,
		LicensePlates: f.LicensePlates,
		Category:      string(f.Category),
	}
	if payload.PolicyNumbers == nil {
		payload.PolicyNumbers = []string{}
	}
	if payload.LicensePlates == nil {
		payload.LicensePlates = []string{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return validateJSONAgainstSchema(BuildFieldsJSONSchema(), data)
}

// validateJSONAgainstSchema validates "data" against "schemaMap".
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
