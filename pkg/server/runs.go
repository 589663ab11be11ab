package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/storage"
	"github.com/raterudder/pvsizer/pkg/types"
)

// maxListLimit caps the limit query parameter of GET /api/runs
const maxListLimit = 500

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(limit, maxListLimit)
	}

	runs, err := s.storage.ListRuns(ctx, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list runs", slog.Any("error", err))
		writeJSONError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []types.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	run, err := s.storage.GetRun(ctx, id)
	if errors.Is(err, storage.ErrRunNotFound) {
		writeJSONError(w, "run not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get run", slog.String("runID", id), slog.Any("error", err))
		writeJSONError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	// runs are immutable once saved
	w.Header().Set("Cache-Control", "private, max-age=3600")
	writeJSON(w, run)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	sc, err := s.storage.GetScenario(ctx, name)
	if errors.Is(err, storage.ErrScenarioNotFound) {
		writeJSONError(w, "scenario not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get scenario", slog.String("scenario", name), slog.Any("error", err))
		writeJSONError(w, "failed to get scenario", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sc)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	// fields missing from the body keep their defaults
	sc := types.DefaultScenario()
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode scenario", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sc.Name = name
	if err := sc.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.storage.SaveScenario(ctx, sc)
	if errors.Is(err, storage.ErrDisabled) {
		writeJSONError(w, "storage is disabled", http.StatusNotImplemented)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save scenario", slog.String("scenario", name), slog.Any("error", err))
		writeJSONError(w, "failed to save scenario", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "saved scenario", slog.String("scenario", name))
	writeJSON(w, sc)
}
