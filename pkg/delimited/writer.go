package delimited

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Rows is an ordered sequence of integer rows. Each row becomes one line.
type Rows interface {
	Len() int
	Row(i int) []int
}

// Labels presents scalar labels as rows of length one.
type Labels []int

func (l Labels) Len() int {
	return len(l)
}

func (l Labels) Row(i int) []int {
	return l[i : i+1 : i+1]
}

// IOError reports an artifact that could not be created or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Encode writes rows as comma separated base-10 integers, one row per line,
// each line terminated by '\n'. tracker may be nil.
func Encode(w io.Writer, rows Rows, tracker *progress.Tracker) error {
	writer := csv.NewWriter(w)

	var record []string
	for i, n := 0, rows.Len(); i < n; i++ {
		row := rows.Row(i)
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.Itoa(v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
		if tracker != nil {
			tracker.Increment(1)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile creates or truncates path and encodes rows into it.
func WriteFile(path string, rows Rows, tracker *progress.Tracker) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if err := encodeTo(f, rows, tracker); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

func encodeTo(f *os.File, rows Rows, tracker *progress.Tracker) error {
	bw := bufio.NewWriterSize(f, 64*1024)
	if err := Encode(bw, rows, tracker); err != nil {
		return err
	}
	return bw.Flush()
}
