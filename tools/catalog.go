package tools

import (
	"fmt"

	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

// Definition binds a tool name to its parameter type and upstream endpoint.
type Definition struct {
	Name        string
	Title       string
	Description string
	Endpoint    openmeteo.Endpoint
	// NewParams returns a pointer to a zero value of the tool's typed
	// parameters.
	NewParams func() openmeteo.Params
}

// MultiModelTool accepts an array of models and is exempt from the
// single-model guard.
const MultiModelTool = "climate_projection"

func forecastParams() openmeteo.Params { return &openmeteo.ForecastParams{} }

// Catalog returns the tool definitions in the order they are listed to
// clients.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        "weather_forecast",
			Title:       "Weather forecast",
			Description: "Get weather forecast data for coordinates using the Open-Meteo API. Supports hourly and daily data with various weather variables.",
			Endpoint:    openmeteo.EndpointForecast,
			NewParams:   forecastParams,
		},
		{
			Name:        "weather_archive",
			Title:       "Historical weather",
			Description: "Get historical weather data from ERA5 reanalysis (1940-present) for specific coordinates and date range.",
			Endpoint:    openmeteo.EndpointArchive,
			NewParams:   func() openmeteo.Params { return &openmeteo.ArchiveParams{} },
		},
		{
			Name:        "air_quality",
			Title:       "Air quality",
			Description: "Get air quality forecast data including PM2.5, PM10, ozone, nitrogen dioxide and other pollutants.",
			Endpoint:    openmeteo.EndpointAirQuality,
			NewParams:   func() openmeteo.Params { return &openmeteo.AirQualityParams{} },
		},
		{
			Name:        "marine_weather",
			Title:       "Marine weather",
			Description: "Get marine weather forecast including wave height, wave period, wave direction and sea surface temperature.",
			Endpoint:    openmeteo.EndpointMarine,
			NewParams:   func() openmeteo.Params { return &openmeteo.MarineParams{} },
		},
		{
			Name:        "elevation",
			Title:       "Elevation",
			Description: "Get elevation data for given coordinates using digital elevation models.",
			Endpoint:    openmeteo.EndpointElevation,
			NewParams:   func() openmeteo.Params { return &openmeteo.ElevationParams{} },
		},
		{
			Name:        "dwd_icon_forecast",
			Title:       "DWD ICON forecast",
			Description: "Get weather forecast from German Weather Service (DWD) ICON model with high resolution data for Europe.",
			Endpoint:    openmeteo.EndpointDWDIcon,
			NewParams:   forecastParams,
		},
		{
			Name:        "gfs_forecast",
			Title:       "NOAA GFS forecast",
			Description: "Get weather forecast from NOAA Global Forecast System (GFS) model with high resolution data for North America.",
			Endpoint:    openmeteo.EndpointGFS,
			NewParams:   forecastParams,
		},
		{
			Name:        "meteofrance_forecast",
			Title:       "Meteo-France forecast",
			Description: "Get weather forecast from Meteo-France AROME and ARPEGE models with high resolution data for France and Europe.",
			Endpoint:    openmeteo.EndpointMeteoFrance,
			NewParams:   forecastParams,
		},
		{
			Name:        "ecmwf_forecast",
			Title:       "ECMWF forecast",
			Description: "Get weather forecast from European Centre for Medium-Range Weather Forecasts (ECMWF) IFS and AIFS models.",
			Endpoint:    openmeteo.EndpointECMWF,
			NewParams:   func() openmeteo.Params { return &openmeteo.ECMWFParams{} },
		},
		{
			Name:        "jma_forecast",
			Title:       "JMA forecast",
			Description: "Get weather forecast from Japan Meteorological Agency (JMA) models with high resolution data for Japan and Asia.",
			Endpoint:    openmeteo.EndpointJMA,
			NewParams:   forecastParams,
		},
		{
			Name:        "metno_forecast",
			Title:       "MET Norway forecast",
			Description: "Get weather forecast from MET Norway Nordic model with high resolution data for Scandinavia.",
			Endpoint:    openmeteo.EndpointMetNo,
			NewParams:   forecastParams,
		},
		{
			Name:        "gem_forecast",
			Title:       "Canadian GEM forecast",
			Description: "Get weather forecast from Canadian Meteorological Centre GEM model with high resolution data for Canada and North America.",
			Endpoint:    openmeteo.EndpointGEM,
			NewParams:   forecastParams,
		},
		{
			Name:        "flood_forecast",
			Title:       "River discharge forecast",
			Description: "Get river discharge and flood forecasts from the GloFAS (Global Flood Awareness System) model.",
			Endpoint:    openmeteo.EndpointFlood,
			NewParams:   func() openmeteo.Params { return &openmeteo.FloodParams{} },
		},
		{
			Name:        "seasonal_forecast",
			Title:       "Seasonal forecast",
			Description: "Get long-range seasonal forecasts for temperature and precipitation up to 9 months ahead.",
			Endpoint:    openmeteo.EndpointSeasonal,
			NewParams:   func() openmeteo.Params { return &openmeteo.SeasonalParams{} },
		},
		{
			Name:        MultiModelTool,
			Title:       "Climate projection",
			Description: "Get climate change projections from CMIP6 models for different warming scenarios. Several models may be compared in one call.",
			Endpoint:    openmeteo.EndpointClimate,
			NewParams:   func() openmeteo.Params { return &openmeteo.ClimateParams{} },
		},
		{
			Name:        "ensemble_forecast",
			Title:       "Ensemble forecast",
			Description: "Get ensemble forecasts showing forecast uncertainty with multiple model runs.",
			Endpoint:    openmeteo.EndpointEnsemble,
			NewParams:   func() openmeteo.Params { return &openmeteo.EnsembleParams{} },
		},
		{
			Name:        "geocoding",
			Title:       "Geocoding",
			Description: "Search for locations worldwide by place name or postal code. Returns coordinates, country, administrative areas, timezone and population.",
			Endpoint:    openmeteo.EndpointGeocoding,
			NewParams:   func() openmeteo.Params { return &openmeteo.GeocodingParams{} },
		},
	}
}

// Select returns the named definitions in catalogue order. Unknown names are
// an error.
func Select(names ...string) ([]Definition, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Definition
	for _, def := range Catalog() {
		if want[def.Name] {
			out = append(out, def)
			delete(want, def.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown tool %q", n)
	}
	return out, nil
}
