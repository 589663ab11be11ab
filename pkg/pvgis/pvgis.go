// Package pvgis fetches monthly PV yield estimates from the EU JRC PVGIS
// PVcalc service.
package pvgis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/common"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/profile"
	"github.com/raterudder/pvsizer/pkg/types"
)

// Request identifies one PVcalc calculation. Angle is the tilt from
// horizontal (90 is a vertical facade) and Azimuth follows PVGIS' aspect
// convention (0 south, 90 west, -90 east).
type Request struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Azimuth   float64 `json:"azimuth"`
	Angle     float64 `json:"angle"`
	// LossPct is the system loss in percent
	LossPct float64 `json:"lossPct"`
}

// Validate checks the coordinates and mounting geometry.
func (r Request) Validate() error {
	if math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %g", r.Latitude)
	}
	if math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %g", r.Longitude)
	}
	if math.IsNaN(r.Azimuth) || r.Azimuth < -180 || r.Azimuth > 180 {
		return fmt.Errorf("azimuth out of range: %g", r.Azimuth)
	}
	if math.IsNaN(r.Angle) || r.Angle < 0 || r.Angle > 90 {
		return fmt.Errorf("angle out of range: %g", r.Angle)
	}
	if math.IsNaN(r.LossPct) || r.LossPct < 0 || r.LossPct >= 100 {
		return fmt.Errorf("loss out of range: %g", r.LossPct)
	}
	return nil
}

// Result is a fetched per-kWp profile along with the PVGIS summary.
type Result struct {
	Generation types.MonthlyGenerationProfile `json:"generation"`
	Summary    types.PVSummary                `json:"summary"`
}

// Provider returns monthly PV generation for a site.
type Provider interface {
	MonthlyGeneration(ctx context.Context, req Request) (Result, error)
}

// Client implements Provider against the PVGIS API. Results are cached per
// request since PVGIS data for a site does not change between runs.
type Client struct {
	apiURL       string
	defaultAngle float64
	defaultLoss  float64
	client       *http.Client

	mu    sync.Mutex
	cache map[Request]Result
}

var _ Provider = (*Client)(nil)

// NewClient creates a Client for the given PVcalc endpoint.
func NewClient(apiURL string, client *http.Client) *Client {
	return &Client{
		apiURL:       apiURL,
		defaultAngle: 90,
		defaultLoss:  14,
		client:       client,
		cache:        make(map[Request]Result),
	}
}

// Configured sets up flags for PVGIS and returns the instance.
func Configured() *Client {
	c := NewClient("", common.HTTPClient(30*time.Second))
	apiURL := lflag.String("pvgis-api-url", "https://re.jrc.ec.europa.eu/api/v5_2/PVcalc", "URL for the PVGIS PVcalc API")
	defaults := struct {
		Angle   float64 `json:"angle"`
		LossPct float64 `json:"lossPct"`
	}{Angle: c.defaultAngle, LossPct: c.defaultLoss}
	lflag.JSON(&defaults, "pvgis-defaults", defaults, "JSON object with the default tilt angle and system loss percent for PVGIS requests")

	lflag.Do(func() {
		c.apiURL = *apiURL
		c.defaultAngle = defaults.Angle
		c.defaultLoss = defaults.LossPct
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("pvgis validation failed: %v", err))
		}
	})

	return c
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.apiURL == "" {
		return fmt.Errorf("pvgis-api-url is required")
	}
	if _, err := url.Parse(c.apiURL); err != nil {
		return fmt.Errorf("failed to parse pvgis url (%s): %w", c.apiURL, err)
	}
	return nil
}

// DefaultRequest returns a request for the coordinates using the configured
// tilt and loss.
func (c *Client) DefaultRequest(lat, lon, azimuth float64) Request {
	return Request{
		Latitude:  lat,
		Longitude: lon,
		Azimuth:   azimuth,
		Angle:     c.defaultAngle,
		LossPct:   c.defaultLoss,
	}
}

// MonthlyGeneration returns the monthly kWh produced by 1 kWp at the site.
func (c *Client) MonthlyGeneration(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	if res, ok := c.cache[req]; ok {
		c.mu.Unlock()
		log.Ctx(ctx).DebugContext(ctx, "using cached pvgis result", slog.Float64("lat", req.Latitude), slog.Float64("lon", req.Longitude))
		return res, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	params.Set("peakpower", "1")
	params.Set("loss", strconv.FormatFloat(req.LossPct, 'f', -1, 64))
	params.Set("angle", strconv.FormatFloat(req.Angle, 'f', -1, 64))
	params.Set("aspect", strconv.FormatFloat(req.Azimuth, 'f', -1, 64))
	params.Set("mountingplace", "building")
	params.Set("outputformat", "json")

	log.Ctx(ctx).DebugContext(
		ctx,
		"fetching pvgis monthly generation",
		slog.Float64("lat", req.Latitude),
		slog.Float64("lon", req.Longitude),
		slog.Float64("azimuth", req.Azimuth),
		slog.Float64("angle", req.Angle),
	)

	var resp profile.PVGISResponse
	if err := common.GetJSON(ctx, c.client, c.apiURL, params, &resp); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch pvgis data", slog.Any("error", err))
		return Result{}, fmt.Errorf("failed to fetch pvgis data: %w", err)
	}

	gen, err := resp.Generation()
	if err != nil {
		return Result{}, err
	}
	res := Result{Generation: gen, Summary: resp.Summary()}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched pvgis monthly generation",
		slog.Float64("yearlyKWH", res.Summary.YearlyEnergyKWH),
		slog.Float64("annualKWHPerKWp", gen.AnnualKWHPerKWp()),
	)

	c.mu.Lock()
	c.cache[req] = res
	c.mu.Unlock()

	return res, nil
}
