package flatten

import (
	"fmt"

	"github.com/grexie/mnistcsv/pkg/dataset"
	"gorgonia.org/tensor"
)

// ShapeError reports a grid whose dimensions differ from the first grid of
// the collection. Row is -1 when the row count differs.
type ShapeError struct {
	Index  int
	Row    int
	Want   int
	Got    int
	Height int
	Width  int
}

func (e *ShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("sample %d: got %d rows, want %d (shape %dx%d)", e.Index, e.Got, e.Want, e.Height, e.Width)
	}
	return fmt.Sprintf("sample %d row %d: got %d columns, want %d (shape %dx%d)", e.Index, e.Row, e.Got, e.Want, e.Height, e.Width)
}

// Collection holds N flattened samples of equal width as an (N, H*W) tensor.
type Collection struct {
	n, width int
	dense    *tensor.Dense
}

func (c *Collection) Len() int {
	return c.n
}

func (c *Collection) Width() int {
	return c.width
}

// Row returns sample i in row-major order. The slice aliases the collection.
func (c *Collection) Row(i int) []int {
	if c.dense == nil {
		return []int{}
	}
	data := ints(c.dense.Data())
	return data[i*c.width : (i+1)*c.width : (i+1)*c.width]
}

// Tensor returns the (N, H*W) tensor backing the rows, or nil when the
// collection holds no values.
func (c *Collection) Tensor() *tensor.Dense {
	return c.dense
}

// RowSums reduces every row to the sum of its values.
func (c *Collection) RowSums() ([]int, error) {
	if c.dense == nil {
		return make([]int, c.n), nil
	}
	sums, err := c.dense.Sum(1)
	if err != nil {
		return nil, fmt.Errorf("sum along axis 1: %w", err)
	}
	out := ints(sums.Data())
	if len(out) != c.n {
		return nil, fmt.Errorf("sum along axis 1: got %d values, want %d", len(out), c.n)
	}
	return out, nil
}

// ints normalizes tensor data, which is a bare scalar for single-element
// results.
func ints(v interface{}) []int {
	switch v := v.(type) {
	case []int:
		return v
	case int:
		return []int{v}
	default:
		panic(fmt.Sprintf("flatten: unexpected tensor data %T", v))
	}
}

// Flatten reshapes every H x W grid into a row of H*W values, rows first.
func Flatten(samples dataset.SampleCollection) (*Collection, error) {
	n := len(samples)
	if n == 0 {
		return &Collection{}, nil
	}

	height := len(samples[0])
	width := 0
	if height > 0 {
		width = len(samples[0][0])
	}

	backing := make([]int, 0, n*height*width)
	for i, grid := range samples {
		if len(grid) != height {
			return nil, &ShapeError{Index: i, Row: -1, Want: height, Got: len(grid), Height: height, Width: width}
		}
		for r, row := range grid {
			if len(row) != width {
				return nil, &ShapeError{Index: i, Row: r, Want: width, Got: len(row), Height: height, Width: width}
			}
			backing = append(backing, row...)
		}
	}

	if len(backing) == 0 {
		return &Collection{n: n}, nil
	}

	dense := tensor.New(tensor.WithShape(n, height, width), tensor.WithBacking(backing))
	if err := dense.Reshape(n, height*width); err != nil {
		return nil, fmt.Errorf("reshape (%d, %d, %d): %w", n, height, width, err)
	}

	return &Collection{n: n, width: height * width, dense: dense}, nil
}
