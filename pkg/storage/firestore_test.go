package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/raterudder/pvsizer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProvider(t *testing.T) {
	// Check if emulator is running or configured
	// We assume it is running on localhost:8087
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")

	// Use a test project ID
	projectID := "test-project-id"

	// Use a random database for isolation
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	f := &FirestoreProvider{
		projectID: projectID,
		database:  randDB,
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("Runs", func(t *testing.T) {
		now := time.Now().Truncate(time.Second).UTC()
		older := types.Run{
			CreatedAt: now.Add(-time.Hour),
			Label:     "older",
			Scenario:  types.DefaultScenario(),
			Result: types.OptimizationResult{
				MinCost: types.SimulationResult{CapacityKWp: 3.5, TotalAnnualCost: 900},
			},
		}
		newer := older
		newer.CreatedAt = now
		newer.Label = "newer"
		newer.ModelName = "Casa"

		olderID, err := f.SaveRun(ctx, older)
		require.NoError(t, err)
		assert.NotEmpty(t, olderID)
		newerID, err := f.SaveRun(ctx, newer)
		require.NoError(t, err)
		assert.NotEqual(t, olderID, newerID)

		got, err := f.GetRun(ctx, newerID)
		require.NoError(t, err)
		assert.Equal(t, newerID, got.ID)
		assert.Equal(t, "Casa", got.ModelName)
		assert.Equal(t, 3.5, got.Result.MinCost.CapacityKWp)
		assert.True(t, now.Equal(got.CreatedAt))

		runs, err := f.ListRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "newer", runs[0].Label)
		assert.Equal(t, "older", runs[1].Label)

		runs, err = f.ListRuns(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, newerID, runs[0].ID)
	})

	t.Run("Run Not Found", func(t *testing.T) {
		_, err := f.GetRun(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
		_, err = f.GetRun(ctx, "")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("Scenarios", func(t *testing.T) {
		s := types.DefaultScenario()
		s.Name = "high-interest"
		s.Financial.InterestRate = 0.1
		require.NoError(t, f.SaveScenario(ctx, s))

		got, err := f.GetScenario(ctx, "high-interest")
		require.NoError(t, err)
		assert.Equal(t, s, got)

		assert.Error(t, f.SaveScenario(ctx, types.Scenario{}))
	})

	t.Run("Scenario Migration", func(t *testing.T) {
		// a version 0 scenario without loan term, EER or sweep
		_, err := f.client.Collection(scenariosCollection).Doc("legacy").Set(ctx, map[string]interface{}{
			"json": `{"financial":{"costPerKWp":1200,"interestRate":0.05,"heatPumpCOP":4}}`,
		})
		require.NoError(t, err)

		got, err := f.GetScenario(ctx, "legacy")
		require.NoError(t, err)
		assert.Equal(t, "legacy", got.Name)
		assert.Equal(t, 1200.0, got.Financial.CostPerKWp)
		assert.Equal(t, types.DefaultFinancialParameters().LoanYears, got.Financial.LoanYears)
		assert.Equal(t, 4.0, got.Financial.CoolingEER)
		assert.Equal(t, types.DefaultSweepRange(), got.Sweep)
	})

	t.Run("Scenario Not Found", func(t *testing.T) {
		_, err := f.GetScenario(ctx, "missing")
		assert.ErrorIs(t, err, ErrScenarioNotFound)
	})
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var d Database = Disabled{}

	_, err := d.SaveRun(ctx, types.Run{})
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = d.GetRun(ctx, "x")
	assert.ErrorIs(t, err, ErrRunNotFound)
	runs, err := d.ListRuns(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.ErrorIs(t, d.SaveScenario(ctx, types.DefaultScenario()), ErrDisabled)
	_, err = d.GetScenario(ctx, "x")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
	assert.NoError(t, d.Close())
}
