package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

// draft07 is declared on reflected schemas so that gojsonschema compiles them
// with the draft-07 keyword set.
const draft07 = "http://json-schema.org/draft-07/schema#"

// reflectSchema reflects the typed parameters of a tool into a root object
// schema with every definition inlined.
func reflectSchema(p openmeteo.Params) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(p)
	s.Version = draft07
	return s
}

// toInputSchema converts a reflected schema to the simplified form advertised
// by tools/list.
func toInputSchema(s *jsonschema.Schema) mcp.ToolInputSchema {
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: true,
	}
}

// toMCPProperty recursively maps a jsonschema.Schema to an mcp.SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
		Pattern:     s.Pattern,
		MinLength:   s.MinLength,
		Minimum:     number(s.Minimum),
		Maximum:     number(s.Maximum),
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	return p
}

func number(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}
