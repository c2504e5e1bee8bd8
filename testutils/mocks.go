package testutils

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	args := m.Called(ctx, templateName, to, subject, data)
	return args.Error(0)
}
