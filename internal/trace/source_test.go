package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_Missing(t *testing.T) {
	path := TraceFile(t.TempDir())

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTraceFile)
	assert.ErrorIs(t, CheckExists(path), ErrMissingTraceFile)
}

func TestReadFile_SkipsBlankLinesKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := "nvcc -c a.cu -o a.o\n\n   \nnvcc -c b.cu -o b.o\r\nnvcc a.o b.o -o prog\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	lines, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"nvcc -c a.cu -o a.o",
		"nvcc -c b.cu -o b.o",
		"nvcc a.o b.o -o prog",
	}, lines)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := TraceFile(filepath.Join(t.TempDir(), "nested", "traces"))
	lines := []string{"ar qc libk.a k.o", "ranlib libk.a"}

	require.NoError(t, WriteFile(path, lines))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestTraceFile(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "executable_traces.txt"), TraceFile("x"))
}
