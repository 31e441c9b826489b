package metrics

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockScorer is a mock implementation of Scorer using testify/mock.
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, candidate, reference string) (map[string]float64, error) {
	args := m.Called(ctx, candidate, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}
