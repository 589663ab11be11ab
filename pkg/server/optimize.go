package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/optimizer"
	"github.com/raterudder/pvsizer/pkg/storage"
	"github.com/raterudder/pvsizer/pkg/types"
)

type pvgisQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Azimuth   float64 `json:"azimuth"`
}

type optimizeRequest struct {
	Demand types.MonthlyDemandProfile `json:"demand"`
	// exactly one of Generation or PVGIS
	Generation *types.MonthlyGenerationProfile `json:"generation,omitempty"`
	PVGIS      *pvgisQuery                     `json:"pvgis,omitempty"`
	// Scenario overrides the defaults field by field; ScenarioName loads a
	// stored scenario instead
	Scenario     json.RawMessage `json:"scenario,omitempty"`
	ScenarioName string          `json:"scenarioName,omitempty"`

	Label     string          `json:"label,omitempty"`
	ModelName string          `json:"modelName,omitempty"`
	Location  *types.Location `json:"location,omitempty"`
	Save      bool            `json:"save,omitempty"`
}

type optimizeResponse struct {
	RunID         string                                           `json:"runID,omitempty"`
	Scenario      types.Scenario                                   `json:"scenario"`
	Generation    types.MonthlyGenerationProfile                   `json:"generation"`
	Result        types.OptimizationResult                         `json:"result"`
	EnergyBalance [types.MonthsPerYear]types.MonthlyEnergyBalance `json:"energyBalance"`
}

// httpError carries the status code a handler should respond with
type httpError struct {
	code int
	msg  string
	err  error
}

func (e *httpError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *httpError) Unwrap() error {
	return e.err
}

func (s *Server) resolveScenario(r *http.Request, req optimizeRequest) (types.Scenario, error) {
	ctx := r.Context()
	if req.ScenarioName != "" {
		if len(req.Scenario) > 0 {
			return types.Scenario{}, &httpError{code: http.StatusBadRequest, msg: "scenario and scenarioName are exclusive"}
		}
		sc, err := s.storage.GetScenario(ctx, req.ScenarioName)
		if errors.Is(err, storage.ErrScenarioNotFound) {
			return types.Scenario{}, &httpError{code: http.StatusNotFound, msg: "scenario not found", err: err}
		} else if err != nil {
			return types.Scenario{}, &httpError{code: http.StatusInternalServerError, msg: "failed to get scenario", err: err}
		}
		return sc, nil
	}

	sc := types.DefaultScenario()
	if len(req.Scenario) > 0 {
		if err := json.Unmarshal(req.Scenario, &sc); err != nil {
			return types.Scenario{}, &httpError{code: http.StatusBadRequest, msg: "invalid scenario", err: err}
		}
	}
	return sc, nil
}

func (s *Server) resolveGeneration(r *http.Request, req optimizeRequest) (types.MonthlyGenerationProfile, error) {
	switch {
	case req.Generation != nil && req.PVGIS != nil:
		return types.MonthlyGenerationProfile{}, &httpError{code: http.StatusBadRequest, msg: "generation and pvgis are exclusive"}
	case req.Generation != nil:
		return *req.Generation, nil
	case req.PVGIS != nil:
		res, err := s.pvgis.MonthlyGeneration(r.Context(), s.pvgis.DefaultRequest(req.PVGIS.Latitude, req.PVGIS.Longitude, req.PVGIS.Azimuth))
		if err != nil {
			return types.MonthlyGenerationProfile{}, &httpError{code: http.StatusBadGateway, msg: "failed to get pvgis generation", err: err}
		}
		return res.Generation, nil
	default:
		return types.MonthlyGenerationProfile{}, &httpError{code: http.StatusBadRequest, msg: "generation or pvgis is required"}
	}
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode optimize request", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	scenario, err := s.resolveScenario(r, req)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	generation, err := s.resolveGeneration(r, req)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	result, err := s.optimizer.Optimize(ctx, generation, req.Demand, scenario)
	if errors.Is(err, types.ErrInvalidParameters) || errors.Is(err, types.ErrInvalidProfile) {
		log.Ctx(ctx).WarnContext(ctx, "rejected optimize request", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to optimize", slog.Any("error", err))
		writeJSONError(w, "failed to optimize", http.StatusInternalServerError)
		return
	}

	resp := optimizeResponse{
		Scenario:      scenario,
		Generation:    generation,
		Result:        result,
		EnergyBalance: optimizer.EnergyBalance(result.MinCost.CapacityKWp, generation, req.Demand, scenario.Financial),
	}

	if req.Save {
		run := types.Run{
			ID:         storage.NewRunID(),
			CreatedAt:  time.Now().UTC(),
			Label:      req.Label,
			CreatedBy:  s.getUser(r).Email,
			ModelName:  req.ModelName,
			Location:   req.Location,
			Scenario:   scenario,
			Demand:     req.Demand,
			Generation: generation,
			Result:     result,
		}
		id, err := s.storage.SaveRun(ctx, run)
		if errors.Is(err, storage.ErrDisabled) {
			writeJSONError(w, "storage is disabled", http.StatusNotImplemented)
			return
		} else if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to save run", slog.Any("error", err))
			writeJSONError(w, "failed to save run", http.StatusInternalServerError)
			return
		}
		resp.RunID = id
		log.Ctx(ctx).InfoContext(ctx, "saved run", slog.String("runID", id), slog.Float64("optimalKWp", result.MinCost.CapacityKWp))
	}

	writeJSON(w, resp)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var he *httpError
	if !errors.As(err, &he) {
		log.Ctx(ctx).ErrorContext(ctx, "request failed", slog.Any("error", err))
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if he.code >= http.StatusInternalServerError {
		log.Ctx(ctx).ErrorContext(ctx, he.msg, slog.Any("error", he.err))
	} else {
		log.Ctx(ctx).WarnContext(ctx, he.msg, slog.Any("error", he.err))
	}
	writeJSONError(w, he.msg, he.code)
}

