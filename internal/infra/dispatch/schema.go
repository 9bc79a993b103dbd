package dispatch

import (
	"github.com/google/jsonschema-go/jsonschema"

	"adomcp/internal/domain"
)

// InputSchema renders a descriptor's parameter list as the JSON schema
// advertised to MCP clients. Unknown extra arguments are rejected by
// the schema as well as by the dispatcher's own validation.
func InputSchema(desc *domain.ToolDescriptor) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(desc.Params))
	var required []string

	for _, p := range desc.Params {
		prop := &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		}
		if p.Type == domain.TypeArray {
			prop.Items = &jsonschema.Schema{}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}
