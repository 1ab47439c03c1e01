package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

// Validator checks raw tool arguments in two stages: the JSON document is
// validated against the schema reflected from the tool's parameter type, then
// decoded into that type and completed with defaults.
type Validator struct {
	tools map[string]*compiledTool
}

type compiledTool struct {
	def    Definition
	schema *gojsonschema.Schema
	input  mcp.ToolInputSchema
}

// NewValidator compiles the schema of every definition.
func NewValidator(defs []Definition) (*Validator, error) {
	v := &Validator{tools: make(map[string]*compiledTool, len(defs))}
	for _, def := range defs {
		s := reflectSchema(def.NewParams())
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", def.Name, err)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", def.Name, err)
		}
		v.tools[def.Name] = &compiledTool{def: def, schema: compiled, input: toInputSchema(s)}
	}
	return v, nil
}

// InputSchema returns the advertised input schema of a tool.
func (v *Validator) InputSchema(tool string) (mcp.ToolInputSchema, bool) {
	ct, ok := v.tools[tool]
	if !ok {
		return mcp.ToolInputSchema{}, false
	}
	return ct.input, true
}

// Validate returns the typed parameters of a tool call. Absent arguments are
// treated as an empty object.
func (v *Validator) Validate(tool string, raw json.RawMessage) (openmeteo.Params, error) {
	ct, ok := v.tools[tool]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", tool)
	}

	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}

	res, err := ct.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Tool: tool, Problems: []string{"arguments must be a JSON object: " + err.Error()}}
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, re := range res.Errors() {
			problems = append(problems, describe(re, ct.input))
		}
		return nil, &ValidationError{Tool: tool, Problems: problems}
	}

	params := ct.def.NewParams()
	if err := json.Unmarshal(raw, params); err != nil {
		return nil, &ValidationError{Tool: tool, Problems: []string{err.Error()}}
	}
	params.SetDefaults()
	return params, nil
}
