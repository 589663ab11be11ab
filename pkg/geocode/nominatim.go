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

// Nominatim geocodes with OpenStreetMap's Nominatim and looks up elevation
// with Open-Elevation. An elevation failure is not fatal: the location is
// returned without an elevation.
type Nominatim struct {
	searchURL    string
	elevationURL string
	client       *http.Client
}

// NewNominatim creates a Nominatim provider.
func NewNominatim(searchURL, elevationURL string, client *http.Client) *Nominatim {
	return &Nominatim{searchURL: searchURL, elevationURL: elevationURL, client: client}
}

func configuredNominatim() *Nominatim {
	n := NewNominatim("", "", common.HTTPClient(10*time.Second))
	searchURL := lflag.String("nominatim-url", "https://nominatim.openstreetmap.org/search", "URL for the Nominatim search API")
	elevationURL := lflag.String("open-elevation-url", "https://api.open-elevation.com/api/v1/lookup", "URL for the Open-Elevation lookup API")

	lflag.Do(func() {
		n.searchURL = *searchURL
		n.elevationURL = *elevationURL
	})
	return n
}

// nominatim returns coordinates as strings
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type openElevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Lookup returns the best match for the query.
func (n *Nominatim) Lookup(ctx context.Context, query string) (types.Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := common.GetJSON(ctx, n.client, n.searchURL, params, &places); err != nil {
		return types.Location{}, fmt.Errorf("nominatim search failed: %w", err)
	}
	if len(places) == 0 {
		return types.Location{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return types.Location{}, fmt.Errorf("invalid nominatim latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return types.Location{}, fmt.Errorf("invalid nominatim longitude %q: %w", p.Lon, err)
	}
	name := p.Name
	if name == "" {
		name = query
	}
	loc := types.Location{
		Name:      name,
		Address:   p.DisplayName,
		Latitude:  lat,
		Longitude: lon,
	}

	elevParams := url.Values{}
	elevParams.Set("locations", p.Lat+","+p.Lon)
	var elev openElevationResponse
	if err := common.GetJSON(ctx, n.client, n.elevationURL, elevParams, &elev); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to look up elevation", slog.String("query", query), slog.Any("error", err))
	} else if len(elev.Results) > 0 {
		loc.ElevationM = &elev.Results[0].Elevation
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"geocoded location",
		slog.String("provider", "nominatim"),
		slog.String("query", query),
		slog.Float64("lat", loc.Latitude),
		slog.Float64("lon", loc.Longitude),
	)
	return loc, nil
}
