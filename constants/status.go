package constants

// ContractStatus is the lifecycle status stored on documents.
type ContractStatus string

// Stable values (store these exact strings in DB).
const (
	ContractActive  ContractStatus = "aktiv"
	ContractDormant ContractStatus = "ruhend"
)

// IngestStatus is the outcome kind of a single ingestion run.
type IngestStatus string

const (
	IngestMatched    IngestStatus = "MATCHED"    // existing customer resolved
	IngestCreated    IngestStatus = "CREATED"    // new customer created
	IngestAmbiguous  IngestStatus = "AMBIGUOUS"  // several candidates, needs a human
	IngestUnresolved IngestStatus = "UNRESOLVED" // routed to the unassigned inbox
	IngestFailed     IngestStatus = "FAILED"     // terminal failure for this file
)
