package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Tool defines the interface for any utility the agent can invoke from
// generated text. Implementations are deterministic and run in-process.
type Tool interface {
	Name() string
	Description() string
	// Execute runs the tool with the string parameters parsed from the
	// tool-call syntax. The returned map is rendered as JSON in the visible
	// response. A returned error marks the invocation as failed; tools that
	// want a structured failure return a map with "success": false instead.
	Execute(ctx context.Context, params map[string]string) (map[string]any, error)
	// Parameters describes the accepted parameters, for prompting.
	Parameters() *jsonschema.Schema
}

// GenerateSchema derives a JSON schema from a tool's parameter struct.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
