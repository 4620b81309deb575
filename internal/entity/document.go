package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/constants"
)

// Document represents an ingested document for data transfer between
// layers. CustomerID is nil for documents filed to the unassigned inbox.
type Document struct {
	ID             uuid.UUID               `json:"id"`
	BrokerID       uuid.UUID               `json:"broker_id"`
	CustomerID     *uuid.UUID              `json:"customer_id,omitempty"`
	FilePath       string                  `json:"file_path"`
	RawText        string                  `json:"raw_text,omitempty"`
	NormalizedText string                  `json:"normalized_text,omitempty"`
	PolicyNumbers  []string                `json:"policy_numbers"`
	LicensePlates  []string                `json:"license_plates"`
	Category       constants.Category       `json:"contract_category,omitempty"`
	Status         constants.ContractStatus `json:"contract_status"`
	CreatedAt      time.Time               `json:"created_at"`
}
