package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/testutils"
)

func TestResolveSource(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty path serves the built-in catalog", func(t *testing.T) {
		src, err := ResolveSource("")
		require.NoError(t, err)

		cat, err := src.Load(ctx)
		require.NoError(t, err)
		_, ok := cat.Motion("wave")
		assert.True(t, ok, "built-in catalog should know 'wave'")
	})

	t.Run("YAML file merges over the defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalog.yaml")
		data := `
motions:
  - group: spin
    region: full
    rank: gesture
    duration: 1s
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		src, err := ResolveSource(path)
		require.NoError(t, err)

		cat, err := src.Load(ctx)
		require.NoError(t, err)

		_, ok := cat.Motion("spin")
		assert.True(t, ok, "file motion should be present")
		_, ok = cat.Motion("wave")
		assert.True(t, ok, "defaults should survive the merge")
	})

	t.Run("Directory opens a Loam repository", func(t *testing.T) {
		dir, _ := testutils.SetupCatalogRepo(t)
		testutils.WriteDocs(t, dir, map[string]string{
			"motions/spin.md": "---\nrank: gesture\nregion: full\n---\nSpin in place.\n",
		})

		src, err := ResolveSource(dir)
		require.NoError(t, err)

		cat, err := src.Load(ctx)
		require.NoError(t, err)
		_, ok := cat.Motion("spin")
		assert.True(t, ok)
	})

	t.Run("Unsupported extension errors", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalog.txt")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))

		_, err := ResolveSource(path)
		assert.Error(t, err)
	})

	t.Run("Missing path errors", func(t *testing.T) {
		_, err := ResolveSource(filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})
}

func TestCreateEngineIdleConvention(t *testing.T) {
	eng, src, err := createEngine(context.Background(), RunOptions{Character: "rin"}, createLogger(false))
	require.NoError(t, err)
	require.NotNil(t, src)
	defer eng.Destroy()

	st := eng.Status()
	assert.Equal(t, "rin", st.Name)
	assert.Equal(t, DefaultIdleGroup, st.IdleGroup, "built-in catalog defines 'idle', so the CLI idles on it")
}
