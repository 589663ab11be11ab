// Command pvsizer finds the PV capacity with the lowest annual cost for a
// building and writes the results next to a printed summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/pvsizer/pkg/geocode"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/modeldb"
	"github.com/raterudder/pvsizer/pkg/optimizer"
	"github.com/raterudder/pvsizer/pkg/profile"
	"github.com/raterudder/pvsizer/pkg/pvgis"
	"github.com/raterudder/pvsizer/pkg/report"
	"github.com/raterudder/pvsizer/pkg/storage"
	"github.com/raterudder/pvsizer/pkg/types"
)

// config holds the inputs of a single run.
type config struct {
	DemandFile       string
	DemandColumns    profile.DemandColumns
	GenerationFile   string
	GenerationColumn string

	// PVGIS is used when no generation file is given. The coordinates come
	// from the flags or from geocoding City.
	PVGISLat     *float64
	PVGISLon     *float64
	PVGISAzimuth float64
	City         string

	ModelDB      string
	OutputDir    string
	Scenario     types.Scenario
	ScenarioName string
	Save         bool
	Label        string
}

type app struct {
	cfg       config
	optimizer *optimizer.Optimizer
	pvgis     *pvgis.Client
	geocoders *geocode.Map
	storage   storage.Database
	out       io.Writer
}

// inputs is everything a run needs before the optimizer starts
type inputs struct {
	demand     types.MonthlyDemandProfile
	generation types.MonthlyGenerationProfile
	scenario   types.Scenario
	location   *types.Location
	modelName  string
}

func (a *app) loadInputs(ctx context.Context) (inputs, error) {
	var in inputs
	var err error

	if a.cfg.DemandFile == "" {
		return in, fmt.Errorf("%w: demand-file is required", profile.ErrInputMissing)
	}
	in.demand, err = profile.LoadDemandFile(ctx, a.cfg.DemandFile, a.cfg.DemandColumns)
	if err != nil {
		return in, err
	}

	switch {
	case a.cfg.GenerationFile != "":
		in.generation, err = profile.LoadGenerationFile(ctx, a.cfg.GenerationFile, a.cfg.GenerationColumn)
		if err != nil {
			return in, err
		}
	case a.cfg.PVGISLat != nil && a.cfg.PVGISLon != nil:
		in.location = &types.Location{Latitude: *a.cfg.PVGISLat, Longitude: *a.cfg.PVGISLon}
	case a.cfg.City != "":
		provider, err := a.geocoders.Provider("")
		if err != nil {
			return in, err
		}
		loc, err := provider.Lookup(ctx, a.cfg.City)
		if err != nil {
			return in, fmt.Errorf("failed to geocode %q: %w", a.cfg.City, err)
		}
		in.location = &loc
	default:
		return in, fmt.Errorf("%w: one of generation-file, pvgis-lat and pvgis-lon, or city is required", profile.ErrInputMissing)
	}
	if in.location != nil {
		res, err := a.pvgis.MonthlyGeneration(ctx, a.pvgis.DefaultRequest(in.location.Latitude, in.location.Longitude, a.cfg.PVGISAzimuth))
		if err != nil {
			return in, fmt.Errorf("failed to get pvgis generation: %w", err)
		}
		in.generation = res.Generation
		log.Ctx(ctx).InfoContext(
			ctx,
			"fetched pvgis generation",
			slog.Float64("lat", in.location.Latitude),
			slog.Float64("lon", in.location.Longitude),
			slog.Float64("yearlyKWhPerKWp", res.Summary.YearlyEnergyKWH),
		)
	}

	if a.cfg.ModelDB != "" {
		in.modelName, err = modeldb.ModelName(ctx, a.cfg.ModelDB)
		if err != nil {
			return in, err
		}
	}

	in.scenario = a.cfg.Scenario
	if a.cfg.ScenarioName != "" {
		in.scenario, err = a.storage.GetScenario(ctx, a.cfg.ScenarioName)
		if err != nil {
			return in, fmt.Errorf("failed to load scenario: %w", err)
		}
	}
	return in, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// run loads every input, optimizes, and writes the outputs. Nothing is
// simulated unless all inputs loaded.
func (a *app) run(ctx context.Context) error {
	in, err := a.loadInputs(ctx)
	if err != nil {
		return err
	}
	if in.modelName != "" {
		ctx = log.WithAttrs(ctx, slog.String("model", in.modelName))
	}

	res, err := a.optimizer.Optimize(ctx, in.generation, in.demand, in.scenario)
	if err != nil {
		return err
	}

	if in.modelName != "" {
		fmt.Fprintf(a.out, "Model: %s\n", in.modelName)
	}
	if in.location != nil && in.location.Name != "" {
		fmt.Fprintf(a.out, "Location: %s (%.4f, %.4f)\n", in.location.Name, in.location.Latitude, in.location.Longitude)
	}
	if err := report.WriteSummary(a.out, res); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if a.cfg.OutputDir != "" {
		if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		balance := optimizer.EnergyBalance(res.MinCost.CapacityKWp, in.generation, in.demand, in.scenario.Financial)
		files := []struct {
			name  string
			write func(io.Writer) error
		}{
			{"results.csv", func(w io.Writer) error { return report.WriteResultsCSV(w, res.Results) }},
			{"energy_balance.csv", func(w io.Writer) error { return report.WriteEnergyBalanceCSV(w, balance) }},
			{"generation.csv", func(w io.Writer) error { return profile.WriteGenerationCSV(w, in.generation) }},
		}
		for _, f := range files {
			if err := writeFile(filepath.Join(a.cfg.OutputDir, f.name), f.write); err != nil {
				return err
			}
		}
		log.Ctx(ctx).InfoContext(ctx, "wrote outputs", slog.String("dir", a.cfg.OutputDir))
	}

	if a.cfg.Save {
		id, err := a.storage.SaveRun(ctx, types.Run{
			ID:         storage.NewRunID(),
			CreatedAt:  time.Now().UTC(),
			Label:      a.cfg.Label,
			ModelName:  in.modelName,
			Location:   in.location,
			Scenario:   in.scenario,
			Demand:     in.demand,
			Generation: in.generation,
			Result:     res,
		})
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(a.out, "Saved run %s\n", id)
	}
	return nil
}

func main() {
	a := &app{
		optimizer: optimizer.Configured(),
		pvgis:     pvgis.Configured(),
		geocoders: geocode.Configured(),
		storage:   storage.Configured("none"),
		out:       os.Stdout,
	}

	demandFile := lflag.String("demand-file", "", "CSV of monthly DHW, heating and cooling demand in Wh")
	demandColumns := profile.DefaultDemandColumns()
	lflag.JSON(&demandColumns, "demand-columns", demandColumns, "JSON object naming the dhw, heating and cooling columns of the demand file")
	generationFile := lflag.String("generation-file", "", "CSV or PVGIS JSON of monthly generation per kWp")
	generationColumn := lflag.String("generation-column", profile.DefaultGenerationColumn, "Column of the generation CSV holding kWh per kWp")
	var pvgisLat, pvgisLon *float64
	lflag.JSON(&pvgisLat, "pvgis-lat", pvgisLat, "Latitude for fetching generation from PVGIS")
	lflag.JSON(&pvgisLon, "pvgis-lon", pvgisLon, "Longitude for fetching generation from PVGIS")
	pvgisAzimuth := 0.0
	lflag.JSON(&pvgisAzimuth, "pvgis-azimuth", pvgisAzimuth, "Facade azimuth for PVGIS (0 south, 90 west, -90 east)")
	city := lflag.String("city", "", "City to geocode for PVGIS when no coordinates are given")
	modelDB := lflag.String("model-db", "", "SQLite indicators database of the building model")
	outputDir := lflag.String("output-dir", "results", "Directory for the CSV outputs. Empty skips writing files")
	scenario := types.DefaultScenario()
	lflag.JSON(&scenario, "scenario", scenario, "JSON scenario overriding the default financial parameters and sweep")
	scenarioName := lflag.String("scenario-name", "", "Name of a stored scenario to use instead of --scenario")
	save := lflag.Bool("save", false, "Store the run in the configured storage provider")
	label := lflag.String("label", "", "Label stored with the run")

	lflag.Do(func() {
		a.cfg = config{
			DemandFile:       *demandFile,
			DemandColumns:    demandColumns,
			GenerationFile:   *generationFile,
			GenerationColumn: *generationColumn,
			PVGISLat:         pvgisLat,
			PVGISLon:         pvgisLon,
			PVGISAzimuth:     pvgisAzimuth,
			City:             *city,
			ModelDB:          *modelDB,
			OutputDir:        *outputDir,
			Scenario:         scenario,
			ScenarioName:     *scenarioName,
			Save:             *save,
			Label:            *label,
		}
	})

	lflag.Configure()
	// stdout carries the summary
	log.Configure(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := a.run(ctx)
	if cerr := a.storage.Close(); cerr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", cerr)
	}
	if err != nil {
		msg := "run failed"
		if errors.Is(err, profile.ErrInputMissing) {
			msg = "missing input"
		}
		log.Ctx(ctx).ErrorContext(ctx, msg, "error", err)
		os.Exit(1)
	}
}
