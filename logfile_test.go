package launchd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTail(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"fewer lines than requested", "a\nb\n", 5, "a\nb"},
		{"last two", "a\nb\nc\nd\n", 2, "c\nd"},
		{"no trailing newline", "a\nb\nc", 1, "c"},
		{"zero", "a\nb\n", 0, ""},
		{"negative", "a\nb\n", -3, ""},
		{"empty input", "", 3, ""},
		{"blank lines kept", "a\n\n\nb\n", 3, "\n\nb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tail(tc.input, tc.n))
		})
	}
}

func TestReadLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), FileMode))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	t.Run("whole file", func(t *testing.T) {
		lf, err := ReadLogFile(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo\nthree\n", lf.Content)
		require.NotNil(t, lf.ModifiedAt)
		assert.Equal(t, mtime.UnixMilli(), *lf.ModifiedAt)
	})

	t.Run("tail", func(t *testing.T) {
		n := 2
		lf, err := ReadLogFile(path, &n)
		require.NoError(t, err)
		assert.Equal(t, "two\nthree", lf.Content)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadLogFile(filepath.Join(t.TempDir(), "nope.log"), nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
