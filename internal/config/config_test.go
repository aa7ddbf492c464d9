package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProjectEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MATHPIPE_PROJECT_ID", "PROJECT_ID", "GOOGLE_CLOUD_PROJECT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearProjectEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "problems", cfg.ProblemsCollection)
	assert.Equal(t, "schools", cfg.SchoolsCollection)
	assert.Equal(t, 500, cfg.BatchLimit)
	assert.Equal(t, 1000, cfg.NEISPageSize)
	assert.Equal(t, "extracted_problems.csv", cfg.OutputPath)
	assert.Equal(t, DefaultCategories, cfg.Categories)
	assert.NotContains(t, cfg.ProblemsDir, "~")
	assert.ErrorIs(t, cfg.RequireProject(), ErrMissingProject)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	clearProjectEnv(t)
	t.Setenv("PROJECT_ID", "real-math-test")
	t.Setenv("MATHPIPE_BATCH_LIMIT", "250")
	t.Setenv("MATHPIPE_OUTPUT_BUCKET", "extracted-problems")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "real-math-test", cfg.ProjectID)
	assert.Equal(t, 250, cfg.BatchLimit)
	assert.Equal(t, "extracted-problems", cfg.OutputBucket)
	assert.NoError(t, cfg.RequireProject())
}

func TestLoad_PrefixedProjectWinsOverGeneric(t *testing.T) {
	clearProjectEnv(t)
	t.Setenv("MATHPIPE_PROJECT_ID", "preferred")
	t.Setenv("PROJECT_ID", "fallback")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.ProjectID)
}

func TestLoad_FileThenOverrides(t *testing.T) {
	clearProjectEnv(t)
	path := filepath.Join(t.TempDir(), "mathpipe.yaml")
	content := []byte("project_id: from-file\nschools_file: data/schools.json\nbatch_limit: 100\ncategories:\n  - 미분\n  - 적분\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path, map[string]any{"batch_limit": 10})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "data/schools.json", cfg.SchoolsFile)
	assert.Equal(t, 10, cfg.BatchLimit)
	assert.Equal(t, []string{"미분", "적분"}, cfg.Categories)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_RejectsBatchLimitAboveFirestoreCap(t *testing.T) {
	clearProjectEnv(t)

	_, err := Load("", map[string]any{"batch_limit": 501})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BatchLimit")
}

func TestLoad_RejectsEmptyCategories(t *testing.T) {
	clearProjectEnv(t)

	_, err := Load("", map[string]any{"categories": []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Categories")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "outputs"), expandHome("~/outputs"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "relative", expandHome("relative"))
}
