package storagemock

import (
	"context"

	"github.com/raterudder/pvsizer/pkg/storage"
	"github.com/raterudder/pvsizer/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveRun(ctx context.Context, run types.Run) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *MockDatabase) GetRun(ctx context.Context, id string) (types.Run, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Run), args.Error(1)
}

func (m *MockDatabase) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Run), args.Error(1)
}

func (m *MockDatabase) SaveScenario(ctx context.Context, scenario types.Scenario) error {
	args := m.Called(ctx, scenario)
	return args.Error(0)
}

func (m *MockDatabase) GetScenario(ctx context.Context, name string) (types.Scenario, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.Scenario), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
