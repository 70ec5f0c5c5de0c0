package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeImages(t *testing.T, rows, cols int, grids ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{idxImagesMagic, uint32(len(grids)), uint32(rows), uint32(cols)} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	for _, g := range grids {
		require.Len(t, g, rows*cols)
		buf.Write(g)
	}
	return buf.Bytes()
}

func encodeLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{idxLabelsMagic, uint32(len(labels))} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	buf.Write(labels)
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadIDXImages(t *testing.T) {
	data := encodeImages(t, 2, 3, []byte{0, 1, 2, 3, 4, 5}, []byte{255, 254, 253, 0, 0, 7})

	samples, err := ReadIDXImages(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SampleCollection{
		{{0, 1, 2}, {3, 4, 5}},
		{{255, 254, 253}, {0, 0, 7}},
	}, samples)
}

func TestReadIDXImagesEmpty(t *testing.T) {
	samples, err := ReadIDXImages(bytes.NewReader(encodeImages(t, 28, 28)))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestReadIDXImagesBadMagic(t *testing.T) {
	_, err := ReadIDXImages(bytes.NewReader(encodeLabels(t, 1, 2, 3, 4, 5, 6, 7, 8)))
	assert.ErrorContains(t, err, "invalid magic number")
}

func TestReadIDXImagesTruncated(t *testing.T) {
	data := encodeImages(t, 2, 2, []byte{1, 2, 3, 4})
	_, err := ReadIDXImages(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorContains(t, err, "truncated payload")
}

func TestReadIDXImagesOversizedCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, 0xFFFFFFFF, 1, 1}))
	buf.WriteByte(7)

	_, err := ReadIDXImages(&buf)
	assert.ErrorContains(t, err, "truncated payload")
}

func TestReadIDXImagesZeroShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, 0xFFFFFFFF, 0, 0}))

	_, err := ReadIDXImages(&buf)
	assert.ErrorContains(t, err, "invalid image shape")
}

func TestReadIDXLabelsOversizedCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, 0xFFFFFFFF}))
	buf.Write([]byte{1, 2, 3})

	_, err := ReadIDXLabels(&buf)
	assert.ErrorContains(t, err, "truncated payload")
}

func TestReadIDXLabels(t *testing.T) {
	labels, err := ReadIDXLabels(bytes.NewReader(encodeLabels(t, 3, 7, 0)))
	require.NoError(t, err)
	assert.Equal(t, LabelCollection{3, 7, 0}, labels)
}

func TestReadIDXLabelsBadMagic(t *testing.T) {
	_, err := ReadIDXLabels(bytes.NewReader(encodeImages(t, 1, 1, []byte{9})))
	assert.ErrorContains(t, err, "invalid magic number")
}

func TestGunzip(t *testing.T) {
	raw := encodeLabels(t, 1, 2)

	out, err := gunzip(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = gunzip(gzipBytes(t, raw))
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	_, err = gunzip([]byte{0x1f, 0x8b, 0x00})
	assert.Error(t, err)
}
