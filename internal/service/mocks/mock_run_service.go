package mocks

import (
	"context"
	"io"

	"linkbatch/internal/model"
	"linkbatch/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Run(ctx context.Context, in service.RunInput) (*model.RunResult, error) {
	args := m.Called(ctx, in)
	if res := args.Get(0); res != nil {
		return res.(*model.RunResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRunService) Inspect(ctx context.Context, r io.Reader, filename string) (*model.Inspection, error) {
	args := m.Called(ctx, r, filename)
	if res := args.Get(0); res != nil {
		return res.(*model.Inspection), args.Error(1)
	}
	return nil, args.Error(1)
}
