package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func TestCreateBackends_RemoteAndLocal(t *testing.T) {
	backends, err := CreateBackends(domain.BackendSettings{
		Remote: domain.RemoteBackendSettings{APIKey: "sk-test", Model: "gpt-4o-mini"},
		Local:  domain.LocalBackendSettings{Model: "llama3.1:8b"},
	})

	require.NoError(t, err)
	defer backends.Close()

	require.NotNil(t, backends.Remote)
	assert.Equal(t, domain.BackendRemote, backends.Remote.Kind())
	require.NotNil(t, backends.Local)
	assert.Equal(t, domain.BackendLocal, backends.Local.Kind())
	assert.NotNil(t, backends.Embedder)
	assert.Empty(t, backends.Warnings)
}

func TestCreateBackends_LocalOnly(t *testing.T) {
	backends, err := CreateBackends(domain.BackendSettings{
		Local: domain.LocalBackendSettings{Model: "llama3.1:8b"},
	})

	require.NoError(t, err)
	defer backends.Close()

	assert.Nil(t, backends.Remote)
	assert.Nil(t, backends.Embedder, "embeddings are remote-only")
	assert.NotNil(t, backends.Local)
}

func TestCreateBackends_RemoteOnlySkipsNothing(t *testing.T) {
	backends, err := CreateBackends(domain.BackendSettings{
		Remote: domain.RemoteBackendSettings{APIKey: "sk-test"},
	})

	require.NoError(t, err)
	defer backends.Close()

	assert.NotNil(t, backends.Remote)
	assert.NotNil(t, backends.Local, "local runtime needs no credentials and is always constructed")
}

func TestValidateRemoteConfig_UnconfiguredIsValid(t *testing.T) {
	assert.NoError(t, ValidateRemoteConfig(domain.RemoteBackendSettings{}))
}

func TestValidateLocalConfig_UnreachableDaemon(t *testing.T) {
	err := ValidateLocalConfig(domain.LocalBackendSettings{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, err)
}
