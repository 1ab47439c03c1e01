// Package accept normalizes the Accept header of inbound MCP requests so that
// it always admits both JSON and event-stream responses.
package accept

import (
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")

	required = []struct {
		mt   contenttype.MediaType
		name string
	}{
		{jsonMediaType, "application/json"},
		{eventStreamMediaType, "text/event-stream"},
	}
)

// Normalize merges the given Accept header values into one list. Items keep
// their original order and spelling, duplicates are dropped
// case-insensitively, and application/json and text/event-stream are appended
// when absent.
func Normalize(values []string) string {
	var out []string
	seen := make(map[string]struct{})
	present := make([]bool, len(required))

	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)

			mt := contenttype.NewMediaType(item)
			for i, req := range required {
				if sameType(mt, req.mt) {
					present[i] = true
				}
			}
		}
	}

	for i, req := range required {
		if !present[i] {
			out = append(out, req.name)
		}
	}

	return strings.Join(out, ", ")
}

// sameType compares type and subtype only; parameters such as q are ignored.
func sameType(a, b contenttype.MediaType) bool {
	return a.Type != "" && strings.EqualFold(a.Type, b.Type) && strings.EqualFold(a.Subtype, b.Subtype)
}

// Middleware rewrites the request's Accept header before calling next.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Set("Accept", Normalize(r.Header.Values("Accept")))
		next.ServeHTTP(w, r)
	})
}
