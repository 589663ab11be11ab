package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/common"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/types"
)

// OpenMeteo geocodes with the Open-Meteo geocoding API and looks up the
// elevation with its elevation API. Neither needs an API key.
type OpenMeteo struct {
	geocodeURL   string
	elevationURL string
	client       *http.Client
}

// NewOpenMeteo creates an OpenMeteo provider.
func NewOpenMeteo(geocodeURL, elevationURL string, client *http.Client) *OpenMeteo {
	return &OpenMeteo{geocodeURL: geocodeURL, elevationURL: elevationURL, client: client}
}

func configuredOpenMeteo() *OpenMeteo {
	o := NewOpenMeteo("", "", common.HTTPClient(10*time.Second))
	geocodeURL := lflag.String("openmeteo-geocode-url", "https://geocoding-api.open-meteo.com/v1/search", "URL for the Open-Meteo geocoding API")
	elevationURL := lflag.String("openmeteo-elevation-url", "https://api.open-meteo.com/v1/elevation", "URL for the Open-Meteo elevation API")

	lflag.Do(func() {
		o.geocodeURL = *geocodeURL
		o.elevationURL = *elevationURL
	})
	return o
}

type openMeteoSearch struct {
	Results []struct {
		Name      string   `json:"name"`
		Country   string   `json:"country"`
		Admin1    string   `json:"admin1"`
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

type openMeteoElevation struct {
	Elevation []float64 `json:"elevation"`
}

// Lookup returns the best match for the query.
func (o *OpenMeteo) Lookup(ctx context.Context, query string) (types.Location, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var search openMeteoSearch
	if err := common.GetJSON(ctx, o.client, o.geocodeURL, params, &search); err != nil {
		return types.Location{}, fmt.Errorf("open-meteo geocoding failed: %w", err)
	}
	if len(search.Results) == 0 {
		return types.Location{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	r := search.Results[0]
	loc := types.Location{
		Name:      r.Name,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
	if r.Admin1 != "" {
		loc.Address = r.Name + ", " + r.Admin1 + ", " + r.Country
	}

	elevParams := url.Values{}
	elevParams.Set("latitude", strconv.FormatFloat(r.Latitude, 'f', -1, 64))
	elevParams.Set("longitude", strconv.FormatFloat(r.Longitude, 'f', -1, 64))
	var elev openMeteoElevation
	if err := common.GetJSON(ctx, o.client, o.elevationURL, elevParams, &elev); err != nil {
		return types.Location{}, fmt.Errorf("open-meteo elevation failed: %w", err)
	}
	if len(elev.Elevation) == 0 {
		return types.Location{}, fmt.Errorf("open-meteo elevation returned no values")
	}
	loc.ElevationM = &elev.Elevation[0]

	log.Ctx(ctx).DebugContext(
		ctx,
		"geocoded location",
		slog.String("provider", "openmeteo"),
		slog.String("query", query),
		slog.Float64("lat", loc.Latitude),
		slog.Float64("lon", loc.Longitude),
	)
	return loc, nil
}
