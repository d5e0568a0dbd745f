package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildContractJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the extraction service as a structured output constraint and
// also use it locally to validate what comes back.
func BuildContractJSONSchema() map[string]any {
	party := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			"role": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}
	risk := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"category":    map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string", "minLength": 1},
			"severity":    map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH"}},
		},
		"required": []string{"category", "description"},
	}
	props := map[string]any{
		"document_id":         map[string]any{"type": "string"},
		"title":               map[string]any{"type": "string", "minLength": 1},
		"parties":             map[string]any{"type": "array", "items": party, "minItems": 1},
		"effective_date":      dateProp(),
		"expiration_date":     dateProp(),
		"governing_law":       map[string]any{"type": "string"},
		"contract_value":      map[string]any{"type": "string", "pattern": `^-?\d+(\.\d{1,2})?$`},
		"currency_code":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"payment_terms":       map[string]any{"type": "string"},
		"liability_cap":       map[string]any{"type": "string"},
		"termination_clauses": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"obligations":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"risks":               map[string]any{"type": "array", "items": risk},
		"confidence":          map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"title", "parties"},
	}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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
