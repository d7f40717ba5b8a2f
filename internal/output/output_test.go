package output

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agleyzer/hlsfetch/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.ts")
	require.NoError(t, os.WriteFile(path, []byte("old content that is long"), 0644))

	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCreate_MakesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "index.ts")

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCreate_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := Create(filepath.Join(blocker, "index.ts"))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindIO))
}

func TestWithFile_KeepsPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.ts")
	failure := errors.New("segment 3 failed")

	err := WithFile(path, func(w io.Writer) error {
		if _, err := w.Write([]byte("seg1seg2")); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "seg1seg2", string(data))
}

func TestWithFile_ClosesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.ts")

	var file *os.File
	err := WithFile(path, func(w io.Writer) error {
		file = w.(*os.File)
		_, err := w.Write([]byte("data"))
		return err
	})
	require.NoError(t, err)

	_, err = file.Write([]byte("more"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

type summary struct {
	Output   string `json:"output" yaml:"output"`
	Segments int    `json:"segments" yaml:"segments"`
}

func TestFormatters(t *testing.T) {
	data := summary{Output: "out/index.ts", Segments: 3}

	f, err := NewFormatter("json")
	require.NoError(t, err)
	out, err := f.Format(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"out/index.ts","segments":3}`, string(out))
	assert.True(t, strings.HasSuffix(string(out), "\n"))

	f, err = NewFormatter("yaml")
	require.NoError(t, err)
	out, err = f.Format(data)
	require.NoError(t, err)
	assert.YAMLEq(t, "output: out/index.ts\nsegments: 3\n", string(out))

	_, err = NewFormatter("csv")
	assert.Error(t, err)
}
