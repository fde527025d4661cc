package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Author{Name: "Cash Close", Email: "cashclose@example.com"}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir))
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cashclose.yaml"), []byte("entities: []\n"), 0o644))
	changed, err := HasChanges(dir)
	require.NoError(t, err)
	assert.True(t, changed)

	hash, err := CommitAll(dir, "close: CASH/ACME/2025-01-15 created", testAuthor)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>|%cn", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "close: CASH/ACME/2025-01-15 created|Cash Close <cashclose@example.com>|Cash Close\n", string(out))
}

func TestCommitAllNothingToCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	_, err := CommitAll(dir, "first", testAuthor)
	require.NoError(t, err)

	hash, err := CommitAll(dir, "second", testAuthor)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCommitAllOutsideRepo(t *testing.T) {
	requireGit(t)
	_, err := CommitAll(t.TempDir(), "msg", testAuthor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git")
}
