package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/services"
)

func problemsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p_20251201.json"), `{"problem_id":"P1","date":"2025-12-01","title":"첫째","problem":{"questions":[{"question":"q"}]}}`)
	writeFile(t, filepath.Join(dir, "p_20251209.json"), `{"problem_id":"P2","date":"2025-12-09","title":"둘째","problem":{"questions":[{"question":"q"}]}}`)
	writeFile(t, filepath.Join(dir, "p_all_problems.json"), `[]`)
	t.Setenv("MATHPIPE_PROBLEMS_DIR", dir)
	return dir
}

func TestProblemsUpload_DryRunAll(t *testing.T) {
	problemsDir(t)

	out, err := runCLI(t, "problems", "upload", "--all", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Found 2 problem(s) to upload")
	assert.Contains(t, out, "[DRY RUN] Would upload: P1 - 첫째")
	assert.Contains(t, out, "[DRY RUN] Would upload: P2 - 둘째")
	assert.Contains(t, out, "DRY RUN COMPLETE")
}

func TestProblemsUpload_DryRunWeek(t *testing.T) {
	problemsDir(t)

	out, err := runCLI(t, "problems", "upload", "--week", "20251201", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "P1 - 첫째")
	assert.NotContains(t, out, "P2 - 둘째")
}

func TestProblemsUpload_ModesAreExclusive(t *testing.T) {
	problemsDir(t)

	_, err := runCLI(t, "problems", "upload", "--all", "--week", "20251201")
	assert.Error(t, err)

	_, err = runCLI(t, "problems", "upload", "--dry-run")
	assert.Error(t, err)
}

func TestProblemsUpload_MissingFile(t *testing.T) {
	problemsDir(t)

	_, err := runCLI(t, "problems", "upload", "--file", "p_19990101.json", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestProblemsUpload_RequiresProjectWhenWriting(t *testing.T) {
	problemsDir(t)

	_, err := runCLI(t, "problems", "upload", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}

func TestSelectProblemFiles_MissingDir(t *testing.T) {
	_, err := selectProblemFiles(filepath.Join(t.TempDir(), "nope"), uploadOptions{all: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

type rejectingStore struct {
	reject string
	saved  []string
}

func (s *rejectingStore) SetProblem(ctx context.Context, id string, doc models.ProblemDocument) error {
	if id == s.reject {
		return errors.New("permission denied")
	}
	s.saved = append(s.saved, id)
	return nil
}

func TestRunProblemsUpload_PartialFailureStillSucceeds(t *testing.T) {
	dir := problemsDir(t)
	files, err := services.ListProblemFiles(dir)
	require.NoError(t, err)
	store := &rejectingStore{reject: "P2"}

	var out bytes.Buffer
	err = runProblemsUpload(context.Background(), &out, services.NewProblemUploader(store), files, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"P1"}, store.saved)
	assert.Contains(t, out.String(), "UPLOAD COMPLETE")
	assert.Contains(t, out.String(), "permission denied")
}
