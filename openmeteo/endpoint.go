package openmeteo

import "fmt"

// Host identifies one of the Open-Meteo API hosts.
type Host string

const (
	HostForecast   Host = "forecast"
	HostArchive    Host = "archive"
	HostAirQuality Host = "air-quality"
	HostMarine     Host = "marine"
	HostFlood      Host = "flood"
	HostSeasonal   Host = "seasonal"
	HostClimate    Host = "climate"
	HostEnsemble   Host = "ensemble"
	HostGeocoding  Host = "geocoding"
)

// BaseURLs holds the base URL of every API host. The struct is decoded from
// the environment; each field can be pointed at a self-hosted instance.
type BaseURLs struct {
	Forecast   string `env:"OPEN_METEO_API_URL,default=https://api.open-meteo.com"`
	Archive    string `env:"OPEN_METEO_ARCHIVE_API_URL,default=https://archive-api.open-meteo.com"`
	AirQuality string `env:"OPEN_METEO_AIR_QUALITY_API_URL,default=https://air-quality-api.open-meteo.com"`
	Marine     string `env:"OPEN_METEO_MARINE_API_URL,default=https://marine-api.open-meteo.com"`
	Flood      string `env:"OPEN_METEO_FLOOD_API_URL,default=https://flood-api.open-meteo.com"`
	Seasonal   string `env:"OPEN_METEO_SEASONAL_API_URL,default=https://seasonal-api.open-meteo.com"`
	Climate    string `env:"OPEN_METEO_CLIMATE_API_URL,default=https://climate-api.open-meteo.com"`
	Ensemble   string `env:"OPEN_METEO_ENSEMBLE_API_URL,default=https://ensemble-api.open-meteo.com"`
	Geocoding  string `env:"OPEN_METEO_GEOCODING_API_URL,default=https://geocoding-api.open-meteo.com"`
}

// DefaultBaseURLs returns the public Open-Meteo hosts.
func DefaultBaseURLs() BaseURLs {
	return BaseURLs{
		Forecast:   "https://api.open-meteo.com",
		Archive:    "https://archive-api.open-meteo.com",
		AirQuality: "https://air-quality-api.open-meteo.com",
		Marine:     "https://marine-api.open-meteo.com",
		Flood:      "https://flood-api.open-meteo.com",
		Seasonal:   "https://seasonal-api.open-meteo.com",
		Climate:    "https://climate-api.open-meteo.com",
		Ensemble:   "https://ensemble-api.open-meteo.com",
		Geocoding:  "https://geocoding-api.open-meteo.com",
	}
}

// AllHosts returns a BaseURLs with every host set to url. It is mostly
// useful for pointing the client at a single fake server.
func AllHosts(url string) BaseURLs {
	return BaseURLs{url, url, url, url, url, url, url, url, url}
}

func (b BaseURLs) lookup(h Host) (string, error) {
	var u string
	switch h {
	case HostForecast:
		u = b.Forecast
	case HostArchive:
		u = b.Archive
	case HostAirQuality:
		u = b.AirQuality
	case HostMarine:
		u = b.Marine
	case HostFlood:
		u = b.Flood
	case HostSeasonal:
		u = b.Seasonal
	case HostClimate:
		u = b.Climate
	case HostEnsemble:
		u = b.Ensemble
	case HostGeocoding:
		u = b.Geocoding
	default:
		return "", fmt.Errorf("unknown api host %q", h)
	}
	if u == "" {
		return "", fmt.Errorf("no base url configured for api host %q", h)
	}
	return u, nil
}

// Endpoint is one upstream API operation.
type Endpoint struct {
	Name string
	Host Host
	Path string
}

var (
	EndpointForecast    = Endpoint{Name: "forecast", Host: HostForecast, Path: "/v1/forecast"}
	EndpointArchive     = Endpoint{Name: "archive", Host: HostArchive, Path: "/v1/archive"}
	EndpointAirQuality  = Endpoint{Name: "air-quality", Host: HostAirQuality, Path: "/v1/air-quality"}
	EndpointMarine      = Endpoint{Name: "marine", Host: HostMarine, Path: "/v1/marine"}
	EndpointElevation   = Endpoint{Name: "elevation", Host: HostForecast, Path: "/v1/elevation"}
	EndpointDWDIcon     = Endpoint{Name: "dwd-icon", Host: HostForecast, Path: "/v1/dwd-icon"}
	EndpointGFS         = Endpoint{Name: "gfs", Host: HostForecast, Path: "/v1/gfs"}
	EndpointMeteoFrance = Endpoint{Name: "meteofrance", Host: HostForecast, Path: "/v1/meteofrance"}
	EndpointECMWF       = Endpoint{Name: "ecmwf", Host: HostForecast, Path: "/v1/ecmwf"}
	EndpointJMA         = Endpoint{Name: "jma", Host: HostForecast, Path: "/v1/jma"}
	EndpointMetNo       = Endpoint{Name: "metno", Host: HostForecast, Path: "/v1/metno"}
	EndpointGEM         = Endpoint{Name: "gem", Host: HostForecast, Path: "/v1/gem"}
	EndpointFlood       = Endpoint{Name: "flood", Host: HostFlood, Path: "/v1/flood"}
	EndpointSeasonal    = Endpoint{Name: "seasonal", Host: HostSeasonal, Path: "/v1/seasonal"}
	EndpointClimate     = Endpoint{Name: "climate", Host: HostClimate, Path: "/v1/climate"}
	EndpointEnsemble    = Endpoint{Name: "ensemble", Host: HostEnsemble, Path: "/v1/ensemble"}
	EndpointGeocoding   = Endpoint{Name: "geocoding", Host: HostGeocoding, Path: "/v1/search"}
)
