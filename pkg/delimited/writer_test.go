package delimited

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matrix [][]int

func (m matrix) Len() int        { return len(m) }
func (m matrix) Row(i int) []int { return m[i] }

func parse(t *testing.T, s string) [][]int {
	t.Helper()
	if s == "" {
		return [][]int{}
	}
	require.True(t, strings.HasSuffix(s, "\n"), "output must end with a newline")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	out := make([][]int, len(lines))
	for i, line := range lines {
		out[i] = []int{}
		if line == "" {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			v, err := strconv.Atoi(field)
			require.NoError(t, err, "line %d field %q", i, field)
			out[i] = append(out[i], v)
		}
	}
	return out
}

func TestEncodeSamples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, matrix{{1, 2, 3, 4}, {5, 6, 7, 8}}, nil))
	assert.Equal(t, "1,2,3,4\n5,6,7,8\n", buf.String())
}

func TestEncodeLabels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Labels{3, 7, 0}, nil))
	assert.Equal(t, "3\n7\n0\n", buf.String())
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, matrix{}, nil))
	assert.Equal(t, "", buf.String())

	require.NoError(t, Encode(&buf, Labels(nil), nil))
	assert.Equal(t, "", buf.String())
}

func TestEncodeFormatting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, matrix{{0, -1, 10, 255, -300, 1000000}}, nil))
	assert.Equal(t, "0,-1,10,255,-300,1000000\n", buf.String())
}

func TestEncodeRoundTrip(t *testing.T) {
	in := matrix{
		{0, 0, 0},
		{-1, 1, 255},
		{math.MaxInt32, math.MinInt32, 42},
		{math.MaxInt, math.MinInt, -7},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in, nil))

	out := parse(t, buf.String())
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, []int(in[i]), out[i])
	}
}

func TestEncodeLineCount(t *testing.T) {
	for _, n := range []int{1, 2, 17, 1000} {
		labels := make(Labels, n)
		for i := range labels {
			labels[i] = i % 10
		}
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, labels, nil))
		assert.Equal(t, n, strings.Count(buf.String(), "\n"))
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_label.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,content\nmore\nlines\n"), 0o644))

	require.NoError(t, WriteFile(path, Labels{3, 7, 0}, nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3\n7\n0\n", string(b))
}

func TestWriteFileEmptyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_data.csv")
	require.NoError(t, WriteFile(path, matrix{}, nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestWriteFileIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFile(filepath.Join(blocker, "out.csv"), Labels{1}, nil)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	assert.Equal(t, "create", ioErr.Op)

	err = WriteFile(filepath.Join(dir, "missing", "out.csv"), Labels{1}, nil)
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
