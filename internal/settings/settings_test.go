package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestGet_SeededDefaults(t *testing.T) {
	seeded := filepath.Join(t.TempDir(), "seeded")
	database, err := db.Init(t.TempDir(), db.WithDefaultSaveDir(seeded))
	require.NoError(t, err)
	defer database.Close()

	s, err := Get(t.Context(), database, "/fallback")
	require.NoError(t, err)
	require.Equal(t, seeded, s.SaveDirectory)
	require.Equal(t, DefaultFontSize, s.FontSize)
}

func TestGet_FallbackWhenMissing(t *testing.T) {
	database, err := db.Init(t.TempDir(), db.WithDefaultSaveDir(""))
	require.NoError(t, err)
	defer database.Close()

	s, err := Get(t.Context(), database, "/fallback")
	require.NoError(t, err)
	require.Equal(t, "/fallback", s.SaveDirectory)
}

func TestSet(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()
	ctx := t.Context()

	dir := t.TempDir()
	require.NoError(t, Set(ctx, database, map[string]string{
		KeySaveDirectory: dir + string(filepath.Separator),
		KeyFontSize:      "20",
	}))

	s, err := Get(ctx, database, "/fallback")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean(dir), s.SaveDirectory)
	require.Equal(t, 20, s.FontSize)
}

func TestSet_Rejects(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()
	ctx := t.Context()

	tests := []struct {
		name   string
		values map[string]string
	}{
		{"empty", map[string]string{}},
		{"unknown key", map[string]string{"theme": "dark"}},
		{"relative dir", map[string]string{KeySaveDirectory: "pictures"}},
		{"blank dir", map[string]string{KeySaveDirectory: "  "}},
		{"bad font", map[string]string{KeyFontSize: "huge"}},
		{"font too small", map[string]string{KeyFontSize: "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(ctx, database, tt.values)
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}

	// A bad value keeps the valid one from being written
	err = Set(ctx, database, map[string]string{KeyFontSize: "30", KeySaveDirectory: "rel"})
	require.Error(t, err)
	s, err := Get(ctx, database, "/fallback")
	require.NoError(t, err)
	require.Equal(t, DefaultFontSize, s.FontSize)
}

func TestSaveDir_Creates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b")
	database, err := db.Init(t.TempDir(), db.WithDefaultSaveDir(target))
	require.NoError(t, err)
	defer database.Close()

	dir, err := SaveDir(t.Context(), database, "/fallback")
	require.NoError(t, err)
	require.Equal(t, target, dir)

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
