package openmeteo

import "github.com/invopop/jsonschema"

// Params is implemented by every typed request parameter struct. SetDefaults
// fills the optional fields that have a documented default.
type Params interface {
	SetDefaults()
}

// Coordinates locate a request in WGS84 decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" jsonschema:"minimum=-90,maximum=90,description=Latitude in WGS84 decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema:"minimum=-180,maximum=180,description=Longitude in WGS84 decimal degrees"`
}

// Units selects the unit system of the returned values.
type Units struct {
	TemperatureUnit   string `json:"temperature_unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit,default=celsius,description=Temperature unit"`
	WindSpeedUnit     string `json:"wind_speed_unit,omitempty" jsonschema:"enum=kmh,enum=ms,enum=mph,enum=kn,default=kmh,description=Wind speed unit"`
	PrecipitationUnit string `json:"precipitation_unit,omitempty" jsonschema:"enum=mm,enum=inch,default=mm,description=Precipitation unit"`
}

func (u *Units) setDefaults() {
	u.TemperatureUnit = orDefault(u.TemperatureUnit, "celsius")
	u.WindSpeedUnit = orDefault(u.WindSpeedUnit, "kmh")
	u.PrecipitationUnit = orDefault(u.PrecipitationUnit, "mm")
}

const (
	datePattern = "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
	hourPattern = "^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}$"
)

// ForecastParams are accepted by the generic forecast endpoint and the
// single-provider model endpoints (DWD ICON, GFS, Meteo-France, JMA, MET
// Norway, GEM).
type ForecastParams struct {
	Coordinates
	Hourly            []string `json:"hourly,omitempty" jsonschema:"description=Hourly weather variables to return"`
	Daily             []string `json:"daily,omitempty" jsonschema:"description=Daily weather aggregations to return"`
	CurrentWeather    *bool    `json:"current_weather,omitempty" jsonschema:"description=Include current weather conditions"`
	TemperatureUnit   string   `json:"temperature_unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit,default=celsius,description=Temperature unit"`
	WindSpeedUnit     string   `json:"wind_speed_unit,omitempty" jsonschema:"enum=kmh,enum=ms,enum=mph,enum=kn,default=kmh,description=Wind speed unit"`
	PrecipitationUnit string   `json:"precipitation_unit,omitempty" jsonschema:"enum=mm,enum=inch,default=mm,description=Precipitation unit"`
	Timeformat        string   `json:"timeformat,omitempty" jsonschema:"enum=iso8601,enum=unixtime,default=iso8601,description=Time format of returned timestamps"`
	Timezone          string   `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
	PastDays          *int     `json:"past_days,omitempty" jsonschema:"description=Number of past days to include (1 or 2)"`
	ForecastDays      *int     `json:"forecast_days,omitempty" jsonschema:"minimum=1,maximum=16,description=Number of forecast days"`
	StartDate         string   `json:"start_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=Start date (YYYY-MM-DD)"`
	EndDate           string   `json:"end_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=End date (YYYY-MM-DD)"`
	StartHour         string   `json:"start_hour,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}$,description=Start hour (YYYY-MM-DDTHH:MM)"`
	EndHour           string   `json:"end_hour,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}$,description=End hour (YYYY-MM-DDTHH:MM)"`
	Models            string   `json:"models,omitempty" jsonschema:"description=A single weather model. Make one call per model to compare models."`
}

func (p *ForecastParams) SetDefaults() {
	u := Units{p.TemperatureUnit, p.WindSpeedUnit, p.PrecipitationUnit}
	u.setDefaults()
	p.TemperatureUnit, p.WindSpeedUnit, p.PrecipitationUnit = u.TemperatureUnit, u.WindSpeedUnit, u.PrecipitationUnit
	p.Timeformat = orDefault(p.Timeformat, "iso8601")
}

func (ForecastParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "hourly", HourlyVariables)
	setItemsEnum(s, "daily", DailyVariables)
	setEnum(s, "past_days", []any{1, 2})
	setEnum(s, "models", stringsToAny(ForecastModels))
}

// ECMWFParams are ForecastParams restricted to the ECMWF model namespace.
type ECMWFParams struct {
	ForecastParams
}

func (ECMWFParams) JSONSchemaExtend(s *jsonschema.Schema) {
	ForecastParams{}.JSONSchemaExtend(s)
	setEnum(s, "models", stringsToAny(ECMWFModels))
}

// ArchiveParams request historical reanalysis data.
type ArchiveParams struct {
	Coordinates
	Hourly     []string `json:"hourly,omitempty" jsonschema:"description=Hourly weather variables to return"`
	Daily      []string `json:"daily,omitempty" jsonschema:"description=Daily weather aggregations to return"`
	StartDate  string   `json:"start_date" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=Start date (YYYY-MM-DD)"`
	EndDate    string   `json:"end_date" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=End date (YYYY-MM-DD)"`
	Units
	Timeformat string `json:"timeformat,omitempty" jsonschema:"enum=iso8601,enum=unixtime,default=iso8601,description=Time format of returned timestamps"`
	Timezone   string `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
}

func (p *ArchiveParams) SetDefaults() {
	p.Units.setDefaults()
	p.Timeformat = orDefault(p.Timeformat, "iso8601")
}

func (ArchiveParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "hourly", HourlyVariables)
	setItemsEnum(s, "daily", DailyVariables)
}

// AirQualityParams request pollutant and pollen concentrations.
type AirQualityParams struct {
	Coordinates
	Hourly       []string `json:"hourly,omitempty" jsonschema:"description=Hourly air quality variables to return"`
	Timezone     string   `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
	Timeformat   string   `json:"timeformat,omitempty" jsonschema:"enum=iso8601,enum=unixtime,default=iso8601,description=Time format of returned timestamps"`
	PastDays     *int     `json:"past_days,omitempty" jsonschema:"minimum=1,maximum=7,description=Number of past days to include"`
	ForecastDays *int     `json:"forecast_days,omitempty" jsonschema:"minimum=1,maximum=16,description=Number of forecast days"`
}

func (p *AirQualityParams) SetDefaults() {
	p.Timeformat = orDefault(p.Timeformat, "iso8601")
}

func (AirQualityParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "hourly", AirQualityVariables)
}

// MarineParams request wave and ocean data.
type MarineParams struct {
	Coordinates
	Hourly       []string `json:"hourly,omitempty" jsonschema:"description=Hourly marine variables to return"`
	Daily        []string `json:"daily,omitempty" jsonschema:"description=Daily marine aggregations to return"`
	Timezone     string   `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
	Timeformat   string   `json:"timeformat,omitempty" jsonschema:"enum=iso8601,enum=unixtime,default=iso8601,description=Time format of returned timestamps"`
	PastDays     *int     `json:"past_days,omitempty" jsonschema:"minimum=1,maximum=7,description=Number of past days to include"`
	ForecastDays *int     `json:"forecast_days,omitempty" jsonschema:"minimum=1,maximum=16,description=Number of forecast days"`
}

func (p *MarineParams) SetDefaults() {
	p.Timeformat = orDefault(p.Timeformat, "iso8601")
}

func (MarineParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "hourly", MarineHourlyVariables)
	setItemsEnum(s, "daily", MarineDailyVariables)
}

// FloodParams request river discharge forecasts from GloFAS.
type FloodParams struct {
	Coordinates
	Daily         []string `json:"daily,omitempty" jsonschema:"description=Daily river discharge variables to return"`
	Timezone      string   `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
	Timeformat    string   `json:"timeformat,omitempty" jsonschema:"enum=iso8601,enum=unixtime,default=iso8601,description=Time format of returned timestamps"`
	PastDays      *int     `json:"past_days,omitempty" jsonschema:"minimum=1,maximum=7,description=Number of past days to include"`
	ForecastDays  *int     `json:"forecast_days,omitempty" jsonschema:"minimum=1,maximum=210,description=Number of forecast days"`
	StartDate     string   `json:"start_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=Start date (YYYY-MM-DD)"`
	EndDate       string   `json:"end_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=End date (YYYY-MM-DD)"`
	Ensemble      *bool    `json:"ensemble,omitempty" jsonschema:"description=Return all ensemble members"`
	CellSelection string   `json:"cell_selection,omitempty" jsonschema:"enum=land,enum=sea,enum=nearest,default=nearest,description=Grid cell selection strategy"`
}

func (p *FloodParams) SetDefaults() {
	p.Timeformat = orDefault(p.Timeformat, "iso8601")
	p.CellSelection = orDefault(p.CellSelection, "nearest")
}

func (FloodParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "daily", FloodDailyVariables)
}

// SeasonalParams request long range forecasts up to nine months ahead.
type SeasonalParams struct {
	Coordinates
	Hourly       []string `json:"hourly,omitempty" jsonschema:"description=Six-hourly seasonal variables to return"`
	Daily        []string `json:"daily,omitempty" jsonschema:"description=Daily seasonal aggregations to return"`
	ForecastDays *int     `json:"forecast_days,omitempty" jsonschema:"description=Forecast length in days (45 or 92 or 183 or 274)"`
	PastDays     *int     `json:"past_days,omitempty" jsonschema:"minimum=0,maximum=92,description=Number of past days to include"`
	StartDate    string   `json:"start_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=Start date (YYYY-MM-DD)"`
	EndDate      string   `json:"end_date,omitempty" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=End date (YYYY-MM-DD)"`
	Units
	Timezone string `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
}

func (p *SeasonalParams) SetDefaults() {
	p.Units.setDefaults()
}

func (SeasonalParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "hourly", SeasonalHourlyVariables)
	setItemsEnum(s, "daily", SeasonalDailyVariables)
	setEnum(s, "forecast_days", []any{45, 92, 183, 274})
}

// ClimateParams request downscaled CMIP6 climate projections. Unlike the
// forecast tools, several models may be requested at once.
type ClimateParams struct {
	Coordinates
	Daily     []string `json:"daily" jsonschema:"minItems=1,description=Daily climate variables to return"`
	StartDate string   `json:"start_date" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=Start date (YYYY-MM-DD)"`
	EndDate   string   `json:"end_date" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$,description=End date (YYYY-MM-DD)"`
	Models    []string `json:"models" jsonschema:"minItems=1,description=Climate models to compare"`
	Units
	DisableBiasCorrection *bool `json:"disable_bias_correction,omitempty" jsonschema:"description=Return raw model output without bias correction"`
}

func (p *ClimateParams) SetDefaults() {
	p.Units.setDefaults()
}

func (ClimateParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setItemsEnum(s, "daily", ClimateDailyVariables)
	setItemsEnum(s, "models", ClimateModels)
}

// EnsembleParams request individual ensemble members of a model.
type EnsembleParams struct {
	Coordinates
	Models       string   `json:"models,omitempty" jsonschema:"description=A single ensemble model. Make one call per model to compare models."`
	Hourly       []string `json:"hourly,omitempty" jsonschema:"description=Hourly ensemble variables to return"`
	Daily        []string `json:"daily,omitempty" jsonschema:"description=Daily ensemble aggregations to return"`
	ForecastDays *int     `json:"forecast_days,omitempty" jsonschema:"minimum=1,maximum=35,description=Number of forecast days"`
	Units
	Timezone string `json:"timezone,omitempty" jsonschema:"description=Timezone name such as Europe/Paris or auto"`
}

func (p *EnsembleParams) SetDefaults() {
	p.Units.setDefaults()
}

func (EnsembleParams) JSONSchemaExtend(s *jsonschema.Schema) {
	setEnum(s, "models", stringsToAny(EnsembleModels))
	setItemsEnum(s, "hourly", EnsembleHourlyVariables)
	setItemsEnum(s, "daily", EnsembleDailyVariables)
}

// ElevationParams request the terrain elevation of a point.
type ElevationParams struct {
	Coordinates
}

func (p *ElevationParams) SetDefaults() {}

// GeocodingParams search locations by name.
type GeocodingParams struct {
	Name        string `json:"name" jsonschema:"minLength=2,description=Place name or postal code to search for"`
	Count       *int   `json:"count,omitempty" jsonschema:"minimum=1,maximum=100,default=10,description=Maximum number of results"`
	Language    string `json:"language,omitempty" jsonschema:"description=Language of the returned names (e.g. fr or en)"`
	CountryCode string `json:"countryCode,omitempty" jsonschema:"pattern=^[A-Z]{2}$,description=ISO-3166-1 alpha2 country code to filter results"`
	Format      string `json:"format,omitempty" jsonschema:"enum=json,enum=protobuf,default=json,description=Response format"`
}

func (p *GeocodingParams) SetDefaults() {
	if p.Count == nil {
		n := 10
		p.Count = &n
	}
	p.Format = orDefault(p.Format, "json")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func setEnum(s *jsonschema.Schema, prop string, values []any) {
	if p, ok := s.Properties.Get(prop); ok {
		p.Enum = values
	}
}

func setItemsEnum(s *jsonschema.Schema, prop string, values []string) {
	if p, ok := s.Properties.Get(prop); ok && p.Items != nil {
		p.Items.Enum = stringsToAny(values)
	}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
