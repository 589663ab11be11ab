package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raterudder/pvsizer/pkg/geocode"
	"github.com/raterudder/pvsizer/pkg/log"
)

func parseFloatParam(r *http.Request, name string, required bool) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if required {
			return 0, errors.New(name + " is required")
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return f, nil
}

func (s *Server) handlePVGIS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lat, err := parseFloatParam(r, "lat", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	lon, err := parseFloatParam(r, "lon", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	azimuth, err := parseFloatParam(r, "azimuth", false)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := s.pvgis.DefaultRequest(lat, lon, azimuth)
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.pvgis.MonthlyGeneration(ctx, req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get pvgis generation", slog.Any("error", err))
		writeJSONError(w, "failed to get pvgis generation", http.StatusBadGateway)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, res)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	city := r.URL.Query().Get("city")
	if city == "" {
		writeJSONError(w, "city is required", http.StatusBadRequest)
		return
	}
	provider, err := s.geocoders.Provider(r.URL.Query().Get("provider"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	loc, err := provider.Lookup(ctx, city)
	if errors.Is(err, geocode.ErrNotFound) {
		writeJSONError(w, "location not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to geocode", slog.String("city", city), slog.Any("error", err))
		writeJSONError(w, "failed to geocode", http.StatusBadGateway)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, loc)
}
