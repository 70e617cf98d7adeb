package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("backend.preference", "auto"))

	assert.Equal(t, "auto", store.GetString("backend.preference"))
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store := newTestConfigStore(t)

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("retrieval.limit", 8))
	require.NoError(t, store.Set("retrieval.score_threshold", 0.001))
	require.NoError(t, store.Set("retrieval.graph_expansion", true))
	require.NoError(t, store.Set("retrieval.cache_ttl", "5m"))

	assert.Equal(t, 8, store.GetInt("retrieval.limit"))
	assert.Equal(t, 0.001, store.GetFloat("retrieval.score_threshold"))
	assert.True(t, store.GetBool("retrieval.graph_expansion"))
	assert.Equal(t, 5*time.Minute, store.GetDuration("retrieval.cache_ttl"))
}

func TestConfigStore_GetFloatAcceptsIntegers(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("threshold", 1))

	assert.Equal(t, 1.0, store.GetFloat("threshold"))
}

func TestConfigStore_GetDurationRejectsGarbage(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("timeout", "not a duration"))

	assert.Zero(t, store.GetDuration("timeout"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("backend.remote.model", "gpt-4o-mini"))

	second, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", second.GetString("backend.remote.model"))
}

func TestConfigStore_LoadFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	config := `[backend.remote]
model = "gpt-4o-mini"
api_key = "sk-test"

[retrieval]
limit = 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", store.GetString("backend.remote.model"))
	assert.Equal(t, "sk-test", store.GetString("backend.remote.api_key"))
	assert.Equal(t, 4, store.GetInt("retrieval.limit"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("backend.remote.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
