package llm

import (
	"encoding/json"

	"github.com/abhisek/leetprob/internal/jsoncheck"
)

// validateResponse validates raw JSON against the given Schema.
// Returns nil if no schema is provided or validation passes,
// *ErrInvalidResponse otherwise.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	if err := jsoncheck.Validate("llm-"+schema.Name, schema.Definition, raw); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}
