package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// IDX magic numbers for unsigned byte payloads.
//
//	images: 0x00000803, dims N, rows, cols
//	labels: 0x00000801, dims N
const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
)

// ReadIDXImages decodes an IDX3 image file into grids. Header counts are
// checked against the payload before anything is allocated.
func ReadIDXImages(r io.Reader) (SampleCollection, error) {
	var header struct {
		Magic, Images, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if header.Magic != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, idxImagesMagic)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}

	size := uint64(header.Rows) * uint64(header.Cols)
	if size == 0 && header.Images > 0 {
		return nil, fmt.Errorf("invalid image shape %dx%d for %d images", header.Rows, header.Cols, header.Images)
	}
	if size > 0 && uint64(header.Images) > uint64(len(payload))/size {
		return nil, fmt.Errorf("truncated payload: %d images of %dx%d need %d bytes, got %d",
			header.Images, header.Rows, header.Cols, uint64(header.Images)*size, len(payload))
	}

	rows, cols := int(header.Rows), int(header.Cols)
	out := make(SampleCollection, header.Images)

	for i := range out {
		buf := payload[i*rows*cols : (i+1)*rows*cols]
		grid := make(Grid, rows)
		for y := range grid {
			row := make([]int, cols)
			for x := range row {
				row[x] = int(buf[y*cols+x])
			}
			grid[y] = row
		}
		out[i] = grid
	}

	return out, nil
}

// ReadIDXLabels decodes an IDX1 label file.
func ReadIDXLabels(r io.Reader) (LabelCollection, error) {
	var header struct {
		Magic, Labels uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if header.Magic != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, idxLabelsMagic)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if uint64(header.Labels) > uint64(len(payload)) {
		return nil, fmt.Errorf("truncated payload: %d labels, got %d bytes", header.Labels, len(payload))
	}
	buf := payload[:header.Labels]

	out := make(LabelCollection, len(buf))
	for i, b := range buf {
		out[i] = int(b)
	}
	return out, nil
}

// gunzip returns the decompressed payload when data carries a gzip header,
// otherwise data itself.
func gunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
