package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	runsCollection      = "runs"
	scenariosCollection = "scenarios"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Documents hold the JSON encoding of the value plus the fields
// needed for ordering.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// an empty project ID is detected from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func docJSON(doc *firestore.DocumentSnapshot, dst any) error {
	val, err := doc.DataAt("json")
	if err != nil {
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return fmt.Errorf("document %s 'json' field is not a string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), dst); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return nil
}

// SaveRun stores the run in "runs/{id}". CreatedAt is set to now when zero.
func (f *FirestoreProvider) SaveRun(ctx context.Context, run types.Run) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = f.client.Collection(runsCollection).Doc(run.ID).Set(ctx, map[string]interface{}{
		"json":       string(jsonBytes),
		"createdAt":  run.CreatedAt,
		"label":      run.Label,
		"optimalKWp": run.Result.MinCost.CapacityKWp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return run.ID, nil
}

// GetRun retrieves the run with the given ID.
func (f *FirestoreProvider) GetRun(ctx context.Context, id string) (types.Run, error) {
	if id == "" {
		return types.Run{}, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	doc, err := f.client.Collection(runsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return types.Run{}, fmt.Errorf("failed to fetch run: %w", err)
	}

	var run types.Run
	if err := docJSON(doc, &run); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "invalid run document", slog.String("runID", id), slog.Any("err", err))
		return types.Run{}, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. Documents that fail to
// decode are skipped.
func (f *FirestoreProvider) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	iter := f.client.Collection(runsCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var runs []types.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate runs: %w", err)
		}
		var run types.Run
		if err := docJSON(doc, &run); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping invalid run document", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// SaveScenario stores the scenario in "scenarios/{name}" along with the
// current scenario version.
func (f *FirestoreProvider) SaveScenario(ctx context.Context, scenario types.Scenario) error {
	if scenario.Name == "" {
		return fmt.Errorf("scenario name cannot be empty")
	}
	jsonBytes, err := json.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	_, err = f.client.Collection(scenariosCollection).Doc(scenario.Name).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": types.CurrentScenarioVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

// GetScenario retrieves a named scenario, migrating it from the version it
// was stored with.
func (f *FirestoreProvider) GetScenario(ctx context.Context, name string) (types.Scenario, error) {
	if name == "" {
		return types.Scenario{}, fmt.Errorf("%w: empty name", ErrScenarioNotFound)
	}
	doc, err := f.client.Collection(scenariosCollection).Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Scenario{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
		}
		return types.Scenario{}, fmt.Errorf("failed to fetch scenario: %w", err)
	}

	// read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	var s types.Scenario
	if err := docJSON(doc, &s); err != nil {
		return types.Scenario{}, err
	}
	s, migrated, err := types.MigrateScenario(s, version)
	if err != nil {
		return types.Scenario{}, fmt.Errorf("failed to migrate scenario %s: %w", name, err)
	}
	if migrated {
		log.Ctx(ctx).InfoContext(
			ctx,
			"migrated stored scenario",
			slog.String("scenario", name),
			slog.Int("fromVersion", version),
			slog.Int("toVersion", types.CurrentScenarioVersion),
		)
	}
	s.Name = name
	return s, nil
}
