package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  []openmeteo.Endpoint
	params []openmeteo.Params
	body   json.RawMessage
	err    error
	panic  bool
}

func (f *fakeProvider) Fetch(ctx context.Context, ep openmeteo.Endpoint, p openmeteo.Params) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ep)
	f.params = append(f.params, p)
	f.mu.Unlock()
	if f.panic {
		panic("kaboom")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.body != nil {
		return f.body, nil
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 || res.Content[0].Type != mcp.ContentTypeText {
		t.Fatalf("unexpected result shape: %+v", res)
	}
	return res.Content[0].Text
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeProvider{})
	tools := h.Tools()
	if len(tools) != 17 {
		t.Fatalf("got %d tools, want 17", len(tools))
	}

	byName := map[string]mcp.Tool{}
	for _, tool := range tools {
		if tool.InputSchema.Type != "object" {
			t.Fatalf("%s: schema type %q", tool.Name, tool.InputSchema.Type)
		}
		byName[tool.Name] = tool
	}

	forecast := byName["weather_forecast"].InputSchema
	for _, field := range []string{"latitude", "longitude"} {
		if !contains(forecast.Required, field) {
			t.Fatalf("weather_forecast should require %s, got %v", field, forecast.Required)
		}
	}
	lat := forecast.Properties["latitude"]
	if lat.Minimum == nil || *lat.Minimum != -90 || lat.Maximum == nil || *lat.Maximum != 90 {
		t.Fatalf("unexpected latitude bounds: %+v", lat)
	}
	if hourly := forecast.Properties["hourly"]; hourly.Items == nil || len(hourly.Items.Enum) == 0 {
		t.Fatalf("hourly items should be enumerated: %+v", hourly)
	}

	geo := byName["geocoding"]
	if !strings.Contains(geo.Description, "Search for locations") {
		t.Fatalf("unexpected geocoding description: %q", geo.Description)
	}
	if name := geo.InputSchema.Properties["name"]; name.MinLength == nil || *name.MinLength != 2 {
		t.Fatalf("geocoding name should have minLength 2: %+v", name)
	}

	climate := byName["climate_projection"].InputSchema
	if models := climate.Properties["models"]; models.Type != "array" {
		t.Fatalf("climate models should be an array: %+v", models)
	}
}

func TestModelsArrayGuard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		tool string
		args string
	}{
		{"array", "weather_forecast", `{"models":["a","b"]}`},
		{"bracketed string", "gfs_forecast", `{"models":"[ncep_gfs_global]"}`},
		{"padded bracketed string", "ensemble_forecast", `{"models":"  [icon_seamless]"}`},
		{"ecmwf array", "ecmwf_forecast", `{"latitude":1,"longitude":2,"models":["ecmwf_ifs025"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &fakeProvider{}
			h := NewHandler(p)
			res := h.Invoke(t.Context(), tc.tool, json.RawMessage(tc.args))
			if !res.IsError {
				t.Fatalf("expected error result")
			}
			got := text(t, res)
			// Latitude is missing in most cases; the guard must fire before validation.
			if !strings.Contains(got, "models must be a single string, not an array") {
				t.Fatalf("unexpected text: %q", got)
			}
			if p.callCount() != 0 {
				t.Fatalf("provider should not be called")
			}
		})
	}
}

func TestMultiModelToolAcceptsArray(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	h := NewHandler(p)
	args := `{"latitude":52.52,"longitude":13.41,"start_date":"2030-01-01","end_date":"2030-12-31","models":["MRI_AGCM3_2_S","EC_Earth3P_HR"],"daily":["temperature_2m_max"]}`
	res := h.Invoke(t.Context(), "climate_projection", json.RawMessage(args))
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(t, res))
	}
	got, ok := p.params[0].(*openmeteo.ClimateParams)
	if !ok {
		t.Fatalf("unexpected params type %T", p.params[0])
	}
	if len(got.Models) != 2 || got.TemperatureUnit != "celsius" {
		t.Fatalf("unexpected params: %+v", got)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		tool string
		args string
		want string
	}{
		{"short place name", "geocoding", `{"name":"P"}`, "name must be at least 2 characters long"},
		{"latitude out of range", "weather_forecast", `{"latitude":91,"longitude":0}`, "latitude must be less than or equal to 90"},
		{"longitude out of range", "elevation", `{"latitude":0,"longitude":-181}`, "longitude must be greater than or equal to -180"},
		{"lowercase country code", "geocoding", `{"name":"Paris","countryCode":"fr"}`, "countryCode must be an ISO-3166-1 alpha2 country code"},
		{"missing coordinates", "air_quality", `{}`, "latitude is required"},
		{"bad date", "weather_archive", `{"latitude":1,"longitude":1,"start_date":"2024/01/01","end_date":"2024-01-02"}`, "start_date must be a date in YYYY-MM-DD format"},
		{"unknown model", "gfs_forecast", `{"latitude":1,"longitude":1,"models":"not_a_model"}`, "models must be one of"},
		{"wrong type", "weather_forecast", `{"latitude":"north","longitude":1}`, "latitude must be of type number"},
		{"not an object", "weather_forecast", `[1,2]`, "invalid arguments for weather_forecast"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &fakeProvider{}
			h := NewHandler(p)
			res := h.Invoke(t.Context(), tc.tool, json.RawMessage(tc.args))
			if !res.IsError {
				t.Fatalf("expected error result")
			}
			got := text(t, res)
			if !strings.HasPrefix(got, "Error: ") || !strings.Contains(got, tc.want) {
				t.Fatalf("text = %q, want it to contain %q", got, tc.want)
			}
			if p.callCount() != 0 {
				t.Fatalf("provider should not be called")
			}
		})
	}
}

func TestValidatorAppliesDefaults(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(Catalog())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	params, err := v.Validate("geocoding", json.RawMessage(`{"name":"Berlin"}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	geo := params.(*openmeteo.GeocodingParams)
	if geo.Count == nil || *geo.Count != 10 || geo.Format != "json" {
		t.Fatalf("defaults not applied: %+v", geo)
	}

	_, err = v.Validate("geocoding", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Tool != "geocoding" {
		t.Fatalf("expected ValidationError for missing arguments, got %v", err)
	}
}

func TestValidatorRestrictsCatalog(t *testing.T) {
	t.Parallel()

	defs, err := Select("geocoding", "weather_forecast")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "weather_forecast" || defs[1].Name != "geocoding" {
		t.Fatalf("Select should keep catalogue order: %+v", defs)
	}
	v, err := NewValidator(defs)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	p := &fakeProvider{}
	h := NewHandler(p, WithValidator(v))
	if got := h.Tools(); len(got) != 2 {
		t.Fatalf("got %d tools, want 2", len(got))
	}
	res := h.Invoke(t.Context(), "marine_weather", json.RawMessage(`{"latitude":1,"longitude":2}`))
	if !res.IsError || text(t, res) != `Error: unknown tool "marine_weather"` {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.callCount() != 0 {
		t.Fatalf("provider should not be called")
	}

	if _, err := Select("weather_forecast", "snow_forecast_9000"); err == nil {
		t.Fatalf("Select should reject unknown names")
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	res := NewHandler(p).Invoke(t.Context(), "snow_forecast_9000", json.RawMessage(`{}`))
	if !res.IsError || text(t, res) != `Error: unknown tool "snow_forecast_9000"` {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.callCount() != 0 {
		t.Fatalf("provider should not be called")
	}
}

func TestProviderErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"upstream reason", &openmeteo.APIError{StatusCode: 400, Reason: "Latitude must be in range of -90 to 90°."}, "Error: Latitude must be in range of -90 to 90°."},
		{"plain error", errors.New("dial tcp: connection refused"), "Error: dial tcp: connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(&fakeProvider{err: tc.err})
			res := h.Invoke(t.Context(), "weather_forecast", json.RawMessage(`{"latitude":1,"longitude":2}`))
			if !res.IsError || text(t, res) != tc.want {
				t.Fatalf("unexpected result: %+v", res)
			}
		})
	}
}

func TestProviderPanicRecovered(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeProvider{panic: true})
	res := h.Invoke(t.Context(), "elevation", json.RawMessage(`{"latitude":1,"longitude":2}`))
	if !res.IsError || !strings.Contains(text(t, res), "kaboom") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSuccessIsIndented(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{body: json.RawMessage(`{"elevation":[38.0]}`)}
	h := NewHandler(p)
	res := h.Invoke(t.Context(), "elevation", json.RawMessage(`{"latitude":52.52,"longitude":13.41}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(t, res))
	}
	want := "{\n  \"elevation\": [\n    38.0\n  ]\n}"
	if got := text(t, res); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if p.calls[0] != openmeteo.EndpointElevation {
		t.Fatalf("endpoint = %+v", p.calls[0])
	}
}

func TestForecastDefaults(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	h := NewHandler(p)
	res := h.Invoke(t.Context(), "metno_forecast", json.RawMessage(`{"latitude":59.9,"longitude":10.7,"hourly":["temperature_2m"]}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(t, res))
	}
	got := p.params[0].(*openmeteo.ForecastParams)
	if got.TemperatureUnit != "celsius" || got.WindSpeedUnit != "kmh" || got.Timeformat != "iso8601" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if p.calls[0] != openmeteo.EndpointMetNo {
		t.Fatalf("endpoint = %+v", p.calls[0])
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
