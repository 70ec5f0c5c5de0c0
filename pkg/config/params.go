package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/grexie/mnistcsv/pkg/dataset"
	"github.com/grexie/mnistcsv/pkg/export"
	"github.com/jedib0t/go-pretty/v6/table"
)

type Params struct {
	OutputDir string
	Outputs   export.Outputs

	SourceURL string
	DataDir   string
	Cache     string

	Atomic   bool
	Parallel bool
	Timeout  time.Duration
}

func (p *Params) Write(w io.Writer, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"MNISTCSV_SOURCE_URL", p.SourceURL},
		{"MNISTCSV_DATA_DIR", p.DataDir},
		{"MNISTCSV_CACHE", p.Cache},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"MNISTCSV_OUTPUT_DIR", p.OutputDir},
		{"MNISTCSV_TRAIN_DATA", p.Outputs.TrainData},
		{"MNISTCSV_TRAIN_LABELS", p.Outputs.TrainLabels},
		{"MNISTCSV_TEST_DATA", p.Outputs.TestData},
		{"MNISTCSV_TEST_LABELS", p.Outputs.TestLabels},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"MNISTCSV_ATOMIC", fmt.Sprintf("%t", p.Atomic)},
		{"MNISTCSV_PARALLEL", fmt.Sprintf("%t", p.Parallel)},
		{"MNISTCSV_TIMEOUT", fmt.Sprintf("%0.0f", p.Timeout.Seconds())},
	})
	t.Render()
}

func NewParamsFromEnv() Params {
	dir := OutputDir()
	return Params{
		OutputDir: dir,
		Outputs: export.Outputs{
			TrainData:   outputPath(dir, TrainData()),
			TrainLabels: outputPath(dir, TrainLabels()),
			TestData:    outputPath(dir, TestData()),
			TestLabels:  outputPath(dir, TestLabels()),
		},

		SourceURL: SourceURL(),
		DataDir:   DataDir(),
		Cache:     Cache(),

		Atomic:   Atomic(),
		Parallel: Parallel(),
		Timeout:  Timeout(),
	}
}

// outputPath resolves relative artifact names against dir.
func outputPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func envBool(name string, def func() bool) func() bool {
	return func() bool {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseBool(v); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return value
	}
}

func envString(name string, def func() string) func() string {
	return func() string {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			value = v
		}
		return value
	}
}

func envDuration(name string, def func() time.Duration) func() time.Duration {
	return func() time.Duration {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 32); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = time.Duration(v) * time.Second
			}
		}
		return value
	}
}

var (
	OutputDir   = envString("MNISTCSV_OUTPUT_DIR", func() string { return "." })
	TrainData   = envString("MNISTCSV_TRAIN_DATA", func() string { return "train_data.csv" })
	TrainLabels = envString("MNISTCSV_TRAIN_LABELS", func() string { return "train_label.csv" })
	TestData    = envString("MNISTCSV_TEST_DATA", func() string { return "test_data.csv" })
	TestLabels  = envString("MNISTCSV_TEST_LABELS", func() string { return "test_label.csv" })
)

var (
	SourceURL = envString("MNISTCSV_SOURCE_URL", func() string { return dataset.DefaultBaseURL })
	DataDir   = envString("MNISTCSV_DATA_DIR", func() string { return "" })
	Cache     = envString("MNISTCSV_CACHE", func() string {
		return filepath.Join(os.TempDir(), "mnistcsv-cache.db")
	})
)

var (
	Atomic   = envBool("MNISTCSV_ATOMIC", func() bool { return true })
	Parallel = envBool("MNISTCSV_PARALLEL", func() bool { return false })
	Timeout  = envDuration("MNISTCSV_TIMEOUT", func() time.Duration { return 0 })
)
