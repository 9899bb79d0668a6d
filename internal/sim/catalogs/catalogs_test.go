package catalogs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"haven.world/internal/sim/world/feature/work"
	"haven.world/internal/sim/world/kernel/model"
)

func repoConfigsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "configs")
}

func TestLoad_RepoConfigMatchesDefaults(t *testing.T) {
	c, err := Load(repoConfigsDir(t))
	require.NoError(t, err)
	d := Default()

	require.Equal(t, d.Builds, c.Builds)
	require.Equal(t, d.Crafts, c.Crafts)
	require.Equal(t, d.Placements, c.Placements)
	require.Equal(t, d.Harvest, c.Harvest)
	require.Len(t, c.Digest, 64)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Default().Digest, c.Digest)
}

func TestLoad_RejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"zero cost":    `{"build":[{"id":"x","cost":{"wood":0},"asset":"tree","type":"obstacle"}]}`,
		"bad role":     `{"build":[{"id":"x","cost":{"wood":1},"asset":"tree","type":"wall"}]}`,
		"unknown tool": `{"harvest":[{"asset":"tree","loot":"wood","tool":"spoon"}]}`,
		"not json":     `{`,
	}
	for name, body := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes.json"), []byte(body), 0o644))
		_, err := Load(dir)
		require.Error(t, err, name)
	}
}

func TestDefault_Lookups(t *testing.T) {
	c := Default()

	tree, ok := c.Build("tree")
	require.True(t, ok)
	require.Equal(t, map[model.Resource]int{model.ResourceWood: 5}, tree.Cost)

	ps, ok := c.Craft("path_stone")
	require.True(t, ok)
	require.Equal(t, 2, ps.Yield)

	_, ok = c.Placement(model.ItemAxe)
	require.False(t, ok, "tools are not placeable")

	rule, ok := c.HarvestRule(model.AssetTree)
	require.True(t, ok)
	require.Equal(t, work.ToolFamilyAxe, rule.ToolFamily())

	cotton, _ := c.HarvestRule(model.AssetCottonBush)
	require.Equal(t, work.ToolFamilyNone, cotton.ToolFamily())

	apple, _ := c.HarvestRule(model.AssetAppleTree)
	require.True(t, apple.Renewable)
}
