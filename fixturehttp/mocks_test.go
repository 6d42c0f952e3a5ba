package fixturehttp

import (
	"github.com/stretchr/testify/mock"
	"go.uber.org/fx"
)

type mockShutdowner struct {
	mock.Mock
}

func (m *mockShutdowner) Shutdown(opts ...fx.ShutdownOption) error {
	args := m.Called(opts)
	return args.Error(0)
}

func (m *mockShutdowner) ExpectShutdown() *mock.Call {
	return m.On("Shutdown", mock.Anything)
}
