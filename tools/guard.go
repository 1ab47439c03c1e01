package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrModelsArray rejects several forecast models requested in one call.
var ErrModelsArray = errors.New("models must be a single string, not an array. For multi-model comparison, make one parallel tool call per model.")

// isForecastTool reports whether the single-model guard applies to a tool.
func isForecastTool(name string) bool {
	if name == MultiModelTool {
		return false
	}
	return strings.HasSuffix(name, "_forecast") || strings.HasSuffix(name, "_projection")
}

// checkSingleModel returns ErrModelsArray when the raw arguments carry a
// models value that is an array or a string spelling one. Arguments that do
// not parse are left to the validator.
func checkSingleModel(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var args struct {
		Models json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	models := bytes.TrimSpace(args.Models)
	if len(models) == 0 {
		return nil
	}
	switch models[0] {
	case '[':
		return ErrModelsArray
	case '"':
		var s string
		if err := json.Unmarshal(models, &s); err == nil && strings.HasPrefix(strings.TrimSpace(s), "[") {
			return ErrModelsArray
		}
	}
	return nil
}
