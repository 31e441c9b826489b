package backend

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of Backend using testify/mock.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackend) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	args := m.Called(ctx, prompt, p)
	return args.String(0), args.Error(1)
}
