package library

import (
	"os"
	"testing"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestDelete(t *testing.T) {
	database := setupDB(t)
	ctx := t.Context()
	s := addShot(t, database, t.TempDir(), "a.png")

	out, err := Delete(ctx, database, s.ID)
	require.NoError(t, err)
	require.True(t, out.Deleted)
	require.Empty(t, out.Warning)

	_, err = os.Stat(s.Filepath)
	require.True(t, os.IsNotExist(err))

	_, err = Get(ctx, database, s.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDelete_FileAlreadyMissing(t *testing.T) {
	database := setupDB(t)
	ctx := t.Context()
	s := addShot(t, database, t.TempDir(), "a.png")

	// Removed out of band
	require.NoError(t, os.Remove(s.Filepath))

	out, err := Delete(ctx, database, s.ID)
	require.NoError(t, err)
	require.True(t, out.Deleted)
	require.Equal(t, WarnFileMissing, out.Warning)

	_, err = Get(ctx, database, s.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDelete_UnknownID(t *testing.T) {
	database := setupDB(t)

	_, err := Delete(t.Context(), database, 99)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
