package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/types"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrDisabled         = errors.New("storage is disabled")
)

// DefaultListLimit is the number of runs ListRuns returns when given a
// non-positive limit.
const DefaultListLimit = 50

// Database defines the interface for persisting optimization runs and named
// scenarios.
type Database interface {
	// Runs
	// SaveRun stores the run, assigning an ID when it has none, and returns
	// the ID.
	SaveRun(ctx context.Context, run types.Run) (string, error)
	GetRun(ctx context.Context, id string) (types.Run, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]types.Run, error)

	// Scenarios
	SaveScenario(ctx context.Context, scenario types.Scenario) error
	GetScenario(ctx context.Context, name string) (types.Scenario, error)

	// Lifecycle
	Close() error
}

// NewRunID returns a new random run ID.
func NewRunID() string {
	return uuid.NewString()
}

// Configured sets up the Storage provider based on flags. defaultProvider is
// used when --storage-provider is not given.
func Configured(defaultProvider string) Database {
	provider := lflag.String("storage-provider", defaultProvider, "Storage provider to use (available: firestore, none)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "none":
			p.Database = Disabled{}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// Disabled is a Database that stores nothing. Writes fail with ErrDisabled
// and reads find nothing.
type Disabled struct{}

var _ Database = Disabled{}

func (Disabled) SaveRun(ctx context.Context, run types.Run) (string, error) {
	return "", ErrDisabled
}

func (Disabled) GetRun(ctx context.Context, id string) (types.Run, error) {
	return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

func (Disabled) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	return nil, nil
}

func (Disabled) SaveScenario(ctx context.Context, scenario types.Scenario) error {
	return ErrDisabled
}

func (Disabled) GetScenario(ctx context.Context, name string) (types.Scenario, error) {
	return types.Scenario{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
}

func (Disabled) Close() error {
	return nil
}
