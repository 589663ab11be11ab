package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/pvsizer/pkg/geocode"
	"github.com/raterudder/pvsizer/pkg/optimizer"
	"github.com/raterudder/pvsizer/pkg/pvgis"
	"github.com/raterudder/pvsizer/pkg/storage/storagemock"
	"github.com/raterudder/pvsizer/pkg/types"
)

type staticGeocoder struct {
	locations map[string]types.Location
}

func (g staticGeocoder) Lookup(ctx context.Context, query string) (types.Location, error) {
	if loc, ok := g.locations[query]; ok {
		return loc, nil
	}
	return types.Location{}, geocode.ErrNotFound
}

// newTestServer returns a Server backed by the mock database, a PVGIS test
// server that serves the recorded response, and a static geocoder.
func newTestServer(t *testing.T, db *storagemock.MockDatabase) *Server {
	t.Helper()

	body, err := os.ReadFile(filepath.Join("..", "profile", "testdata", "pvgis.json"))
	require.NoError(t, err)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)

	geocoders := geocode.NewMap()
	geocoders.SetProvider("static", staticGeocoder{locations: map[string]types.Location{
		"Teruel": {Name: "Teruel", Country: "Spain", Latitude: 40.3456, Longitude: -1.1065},
	}})

	return &Server{
		optimizer: optimizer.NewOptimizer(2),
		pvgis:     pvgis.NewClient(ts.URL, ts.Client()),
		geocoders: geocoders,
		storage:   db,
	}
}

func testDemand() types.MonthlyDemandProfile {
	var d types.MonthlyDemandProfile
	for m := range types.MonthsPerYear {
		d.DHW[m] = 150
		switch {
		case m < 3 || m > 9:
			d.Heating[m] = 900
		case m >= 5 && m <= 7:
			d.Cooling[m] = 400
		}
	}
	return d
}

func testGeneration() types.MonthlyGenerationProfile {
	var g types.MonthlyGenerationProfile
	for m := range types.MonthsPerYear {
		g.KWHPerKWp[m] = 60
	}
	return g
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestHandler(t *testing.T) {
	srv := newTestServer(t, &storagemock.MockDatabase{})
	srv.serverName = "pvsizer-test"
	h := srv.setupHandler()

	t.Run("Healthz", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
		assert.Equal(t, "pvsizer-test", w.Header().Get("Server"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("Gzip", func(t *testing.T) {
		// large enough to pass the handler's minimum compression size
		req := httptest.NewRequest("POST", "/api/optimize", jsonBody(t, map[string]any{
			"demand":     testDemand(),
			"generation": testGeneration(),
		}))
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/optimize", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestRun(t *testing.T) {
	srv := newTestServer(t, &storagemock.MockDatabase{})
	srv.listenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()
	cancel()
	assert.NoError(t, <-errCh)
}
