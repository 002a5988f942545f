package library

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()
	s := addShot(t, database, dir, "1700000000000.png")

	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "  Login  page "})
	require.NoError(t, err)
	require.True(t, out.Renamed)
	require.Equal(t, "Login  page", *out.Title)
	require.Equal(t, filepath.Join(dir, "Login_page.png"), out.Filepath)

	_, err = os.Stat(out.Filepath)
	require.NoError(t, err)
	_, err = os.Stat(s.Filepath)
	require.True(t, os.IsNotExist(err))

	got, err := Get(t.Context(), database, s.ID)
	require.NoError(t, err)
	require.Equal(t, out.Filepath, got.Filepath)
	require.Equal(t, "Login  page", *got.Title)
}

func TestRename_CollisionAddsSuffix(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()

	existing := addShot(t, database, dir, "shot.png")
	existingData, err := os.ReadFile(existing.Filepath)
	require.NoError(t, err)

	s := addShot(t, database, dir, "1700000000000.png")
	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "shot"})
	require.NoError(t, err)
	require.True(t, out.Renamed)
	require.Equal(t, filepath.Join(dir, "shot_1.png"), out.Filepath)

	// The existing file was not overwritten
	after, err := os.ReadFile(existing.Filepath)
	require.NoError(t, err)
	require.Equal(t, existingData, after)

	// Next collision moves on to _2
	third := addShot(t, database, dir, "1700000000001.png")
	out, err = Rename(t.Context(), database, RenameInput{ID: third.ID, Title: "shot"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "shot_2.png"), out.Filepath)
}

func TestRename_SameNameIsNoop(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()
	s := addShot(t, database, dir, "shot.png")

	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "shot"})
	require.NoError(t, err)
	require.False(t, out.Renamed)
	require.Equal(t, s.Filepath, out.Filepath)
	require.Equal(t, "shot", *out.Title)
}

func TestRename_EmptyTitleClears(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()
	s := addShot(t, database, dir, "a.png")
	ctx := t.Context()

	_, err := Rename(ctx, database, RenameInput{ID: s.ID, Title: "first"})
	require.NoError(t, err)

	out, err := Rename(ctx, database, RenameInput{ID: s.ID, Title: "   "})
	require.NoError(t, err)
	require.Nil(t, out.Title)
	require.Equal(t, filepath.Join(dir, "first.png"), out.Filepath)

	got, err := Get(ctx, database, s.ID)
	require.NoError(t, err)
	require.Nil(t, got.Title)
}

func TestRename_OnlyIllegalCharsKeepsFile(t *testing.T) {
	database := setupDB(t)
	s := addShot(t, database, t.TempDir(), "a.png")

	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "???"})
	require.NoError(t, err)
	require.False(t, out.Renamed)
	require.Equal(t, "???", *out.Title)
	require.Equal(t, s.Filepath, out.Filepath)
}

func TestRename_FileMissingStillUpdatesTitle(t *testing.T) {
	database := setupDB(t)
	s := addShot(t, database, t.TempDir(), "a.png")
	require.NoError(t, os.Remove(s.Filepath))

	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "renamed"})
	require.NoError(t, err)
	require.False(t, out.Renamed)
	require.NotEmpty(t, out.Warning)
	require.Equal(t, s.Filepath, out.Filepath)

	got, err := Get(t.Context(), database, s.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", *got.Title)
	require.Equal(t, s.Filepath, got.Filepath)
}

func TestRename_ReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("directory permissions not enforced")
	}
	database := setupDB(t)
	dir := t.TempDir()
	s := addShot(t, database, dir, "a.png")

	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { os.Chmod(dir, 0700) })

	out, err := Rename(t.Context(), database, RenameInput{ID: s.ID, Title: "blocked"})
	require.NoError(t, err)
	require.False(t, out.Renamed)
	require.NotEmpty(t, out.Warning)
}
