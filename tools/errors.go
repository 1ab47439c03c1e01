package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ggoodman/open-meteo-mcp/mcp"
)

// ValidationError reports every problem found in the arguments of one tool
// call.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// patternHints replace the raw regular expression in pattern failures for
// fields whose format has a well known name.
var patternHints = map[string]string{
	"countryCode": "must be an ISO-3166-1 alpha2 country code (e.g. FR, DE, US)",
	"start_date":  "must be a date in YYYY-MM-DD format",
	"end_date":    "must be a date in YYYY-MM-DD format",
	"start_hour":  "must be a time in YYYY-MM-DDTHH:MM format",
	"end_hour":    "must be a time in YYYY-MM-DDTHH:MM format",
}

// describe renders a schema violation the way a caller would phrase the
// constraint. Bounds are read from the advertised schema when the field is a
// top-level property.
func describe(re gojsonschema.ResultError, input mcp.ToolInputSchema) string {
	field := re.Field()
	d := re.Details()
	prop, hasProp := input.Properties[field]
	switch re.Type() {
	case "required":
		return fmt.Sprintf("%v is required", d["property"])
	case "invalid_type":
		return fmt.Sprintf("%s must be of type %v, got %v", field, d["expected"], d["given"])
	case "string_gte":
		if hasProp && prop.MinLength != nil {
			return fmt.Sprintf("%s must be at least %d characters long", field, *prop.MinLength)
		}
		return fmt.Sprintf("%s must be at least %v characters long", field, d["min"])
	case "string_lte":
		return fmt.Sprintf("%s must be at most %v characters long", field, d["max"])
	case "number_gte":
		if hasProp && prop.Minimum != nil {
			return fmt.Sprintf("%s must be greater than or equal to %s", field, formatFloat(*prop.Minimum))
		}
		return fmt.Sprintf("%s must be greater than or equal to %v", field, d["min"])
	case "number_lte":
		if hasProp && prop.Maximum != nil {
			return fmt.Sprintf("%s must be less than or equal to %s", field, formatFloat(*prop.Maximum))
		}
		return fmt.Sprintf("%s must be less than or equal to %v", field, d["max"])
	case "array_min_items":
		return fmt.Sprintf("%s must contain at least %v item(s)", field, d["min"])
	case "enum":
		return fmt.Sprintf("%s must be one of %v", field, d["allowed"])
	case "pattern":
		if hint, ok := patternHints[field]; ok {
			return field + " " + hint
		}
		return fmt.Sprintf("%s must match pattern %v", field, d["pattern"])
	}
	return field + ": " + re.Description()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
