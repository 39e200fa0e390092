package toolregistry

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError wraps a JSON-Schema validation failure with the
// human-readable message ToolCallProcessor surfaces in TOOL_RESULT.
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %q: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateArguments parses schemaJSON as a JSON Schema document and validates
// argumentsJSON against it. A nil/empty schema is treated as "anything goes"
// (no schema to enforce).
func ValidateArguments(toolKey string, schemaJSON, argumentsJSON []byte) error {
	if len(schemaJSON) == 0 {
		return nil
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("tool %q: unmarshal input schema: %w", toolKey, err)
	}
	var argsDoc any
	if err := json.Unmarshal(argumentsJSON, &argsDoc); err != nil {
		return &ValidationError{Tool: toolKey, Err: fmt.Errorf("arguments are not valid JSON: %w", err)}
	}

	c := jsonschema.NewCompiler()
	resourceURL := "flowmesh://tool/" + toolKey + "/input-schema.json"
	if err := c.AddResource(resourceURL, schemaDoc); err != nil {
		return fmt.Errorf("tool %q: add schema resource: %w", toolKey, err)
	}
	schema, err := c.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("tool %q: compile input schema: %w", toolKey, err)
	}
	if err := schema.Validate(argsDoc); err != nil {
		return &ValidationError{Tool: toolKey, Err: err}
	}
	return nil
}
