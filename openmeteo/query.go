package openmeteo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// EncodeQuery converts typed parameters into the query string understood by
// the Open-Meteo API. Field names come from the json tags; list values are
// joined with commas and unset optional fields are omitted.
func EncodeQuery(p Params) (url.Values, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	q := make(url.Values, len(fields))
	for k, v := range fields {
		s, ok := queryValue(v)
		if !ok {
			continue
		}
		q.Set(k, s)
	}
	return q, nil
}

func queryValue(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := queryValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	default:
		return fmt.Sprint(v), true
	}
}
