package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_HomeEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv(HomeEnv, dir)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.DirExists(t, dir)
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)

	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.model", "gpt-4o"))
	require.NoError(t, store.Set("workflow.max_steps", 20))
	require.NoError(t, store.Set("llm.requests_per_second", 1.5))
	require.NoError(t, store.Set("debug", true))
	require.NoError(t, store.Set("tags", []string{"a", "b"}))

	assert.Equal(t, "gpt-4o", store.GetString("llm.model"))
	assert.Equal(t, 20, store.GetInt("workflow.max_steps"))
	assert.InDelta(t, 1.5, store.GetFloat("llm.requests_per_second"), 1e-9)
	assert.InDelta(t, 20.0, store.GetFloat("workflow.max_steps"), 1e-9)
	assert.True(t, store.GetBool("debug"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("tags"))

	assert.Empty(t, store.GetString("workflow.max_steps"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_WritesTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("workflow.max_regenerations", 3))
	require.NoError(t, store.Set("mongo.uri", "mongodb://localhost:27017"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	assert.Contains(t, string(raw), "[workflow]")
	assert.Contains(t, string(raw), "[mongo]")
	assert.NotContains(t, string(raw), `"workflow.max_regenerations"`)
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("workflow.max_steps", 12))
	require.NoError(t, store.Set("llm.requests_per_second", 0.5))
	require.NoError(t, store.Set("data.dir", "/srv/galassia"))
	require.NoError(t, store.Set("tags", []string{"x"}))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 12, reloaded.GetInt("workflow.max_steps"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("llm.requests_per_second"), 1e-9)
	assert.Equal(t, "/srv/galassia", reloaded.GetString("data.dir"))
	assert.Equal(t, []string{"x"}, reloaded.GetStringSlice("tags"))
}

func TestConfigStore_EnvOverride(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.api_key", "from-file"))
	require.NoError(t, store.Set("workflow.max_steps", 10))

	t.Setenv("GALASSIA_LLM_API_KEY", "from-env")
	t.Setenv("GALASSIA_WORKFLOW_MAX_STEPS", "40")
	t.Setenv("GALASSIA_LLM_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("GALASSIA_DEBUG", "true")
	t.Setenv("GALASSIA_TAGS", "a, b,,c")

	assert.Equal(t, "from-env", store.GetString("llm.api_key"))
	assert.Equal(t, 40, store.GetInt("workflow.max_steps"))
	assert.InDelta(t, 2.5, store.GetFloat("llm.requests_per_second"), 1e-9)
	assert.True(t, store.GetBool("debug"))
	assert.Equal(t, []string{"a", "b", "c"}, store.GetStringSlice("tags"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "from-env")
}

func TestConfigStore_EnvOverrideInvalidNumber(t *testing.T) {
	store := newTestStore(t)
	t.Setenv("GALASSIA_WORKFLOW_MAX_STEPS", "many")

	assert.Zero(t, store.GetInt("workflow.max_steps"))
	_, ok := store.Get("workflow.max_steps")
	assert.True(t, ok)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	require.NoError(t, store.Set("a.b", 1))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())

	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("workflow.max_steps", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("workflow.max_steps")
		}()
	}
	wg.Wait()
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flattenMap(nested, ""))
}

func TestNestMap_TableWinsOverLeaf(t *testing.T) {
	nested := nestMap(map[string]any{"a": 1, "a.b": 2})

	assert.Equal(t, map[string]any{"a": map[string]any{"b": 2}}, nested)
}

func TestConfigStore_WriteLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Save())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}
