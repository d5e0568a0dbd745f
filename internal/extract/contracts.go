package extract

import "context"

// SchemaContractFields is the registry tag for the contract-fields artifact shape.
const SchemaContractFields = "contract_fields"

// Party identifies one contracting party and its role.
type Party struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"` // e.g. "licensor", "customer"
}

// Risk is a single identified contractual risk.
type Risk struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"` // LOW | MEDIUM | HIGH
}

// ContractFields is the normalized shape we want from the LLM.
type ContractFields struct {
	DocumentID         string   `json:"document_id,omitempty"` // stamped by the orchestrator
	Title              string   `json:"title"`
	Parties            []Party  `json:"parties"`
	EffectiveDate      string   `json:"effective_date,omitempty"`  // YYYY-MM-DD
	ExpirationDate     string   `json:"expiration_date,omitempty"` // YYYY-MM-DD
	GoverningLaw       string   `json:"governing_law,omitempty"`
	ContractValue      string   `json:"contract_value,omitempty"` // decimal
	CurrencyCode       string   `json:"currency_code,omitempty"`  // ISO 4217
	PaymentTerms       string   `json:"payment_terms,omitempty"`
	LiabilityCap       string   `json:"liability_cap,omitempty"`
	TerminationClauses []string `json:"termination_clauses,omitempty"`
	Obligations        []string `json:"obligations,omitempty"`
	Risks              []Risk   `json:"risks,omitempty"`
	ModelConfidence    float32  `json:"confidence,omitempty"` // optional (0..1)
}

// FieldExtractor is the collaborator the pipeline depends on. Implementations
// must be safe for concurrent use; the orchestrator issues many calls at once.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, content string) (ContractFields, []byte /*rawJSON*/, error)
}
