package kbi

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/varphi/go-kbi-sdk/common_models"
	"io"
	"testing"
)

func newTestState(t *testing.T) (*State, *canaryKbiApiClient) {
	t.Helper()
	state, err := Initialize(&InitializeOptions{
		ApiURL:       "http://localhost:8080",
		Database:     &MemoryStorage{},
		Platform:     "go-tests",
		LogLevel:     zerolog.Disabled,
		InstanceName: t.Name(),
		LogWriter:    io.Discard,
	})
	require.NoError(t, err)
	canary := newCanaryKbiApiClient(nil)
	state.apiClient = canary
	return state, canary
}

func signedInTestState(t *testing.T, role common_models.Role, email string) (*State, *canaryKbiApiClient) {
	t.Helper()
	state, canary := newTestState(t)
	state.storage.session.set(currentSession{
		Token: "test-token",
		Role:  role,
		Email: email,
	})
	state.apiClient.setToken("test-token")
	return state, canary
}
