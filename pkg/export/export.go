package export

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/grexie/mnistcsv/pkg/dataset"
	"github.com/grexie/mnistcsv/pkg/delimited"
	"github.com/grexie/mnistcsv/pkg/flatten"
	"github.com/jedib0t/go-pretty/v6/progress"
	"golang.org/x/sync/errgroup"
)

// Outputs names the four artifacts.
type Outputs struct {
	TrainData   string
	TrainLabels string
	TestData    string
	TestLabels  string
}

func DefaultOutputs(dir string) Outputs {
	return Outputs{
		TrainData:   filepath.Join(dir, "train_data.csv"),
		TrainLabels: filepath.Join(dir, "train_label.csv"),
		TestData:    filepath.Join(dir, "test_data.csv"),
		TestLabels:  filepath.Join(dir, "test_label.csv"),
	}
}

type Options struct {
	// Atomic stages all artifacts and publishes them only when every write
	// succeeded.
	Atomic bool
	// Parallel writes the artifacts concurrently.
	Parallel bool
}

type artifact struct {
	path string
	rows delimited.Rows
}

// progressProvider is implemented by providers that can report loading
// progress.
type progressProvider interface {
	LoadWithProgress(ctx context.Context, pw progress.Writer) (*dataset.Dataset, error)
}

// Run loads the dataset, flattens both sample collections and writes the
// four artifacts. Any error aborts the run; with opts.Atomic no artifact is
// published unless all four were written. pw may be nil.
func Run(ctx context.Context, pw progress.Writer, provider dataset.Provider, outputs Outputs, opts Options) (*Summary, error) {
	started := time.Now()

	d, err := load(ctx, pw, provider)
	if err != nil {
		return nil, err
	}
	if err := d.Train.Validate("train"); err != nil {
		return nil, err
	}
	if err := d.Test.Validate("test"); err != nil {
		return nil, err
	}
	loaded := time.Now()

	train, err := flatten.Flatten(d.Train.Samples)
	if err != nil {
		return nil, err
	}
	test, err := flatten.Flatten(d.Test.Samples)
	if err != nil {
		return nil, err
	}
	flattened := time.Now()

	artifacts := []artifact{
		{outputs.TrainData, train},
		{outputs.TrainLabels, delimited.Labels(d.Train.Labels)},
		{outputs.TestData, test},
		{outputs.TestLabels, delimited.Labels(d.Test.Labels)},
	}

	batch := delimited.NewBatch(opts.Atomic, pw)
	if err := write(ctx, batch, artifacts, opts.Parallel); err != nil {
		if aerr := batch.Abort(); aerr != nil {
			log.Printf("failed to remove staged artifacts: %v", aerr)
		}
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	summary, err := newSummary(d, train, test, outputs)
	if err != nil {
		return nil, err
	}
	summary.LoadDuration = loaded.Sub(started)
	summary.FlattenDuration = flattened.Sub(loaded)
	summary.WriteDuration = time.Since(flattened)
	return summary, nil
}

func load(ctx context.Context, pw progress.Writer, provider dataset.Provider) (*dataset.Dataset, error) {
	var (
		d   *dataset.Dataset
		err error
	)
	if p, ok := provider.(progressProvider); ok && pw != nil {
		d, err = p.LoadWithProgress(ctx, pw)
	} else {
		d, err = provider.Load(ctx)
	}

	var perr *dataset.ProviderError
	if err != nil && !errors.As(err, &perr) {
		return nil, &dataset.ProviderError{Err: err}
	} else if err != nil {
		return nil, err
	} else if d == nil {
		return nil, &dataset.ProviderError{Err: errors.New("provider returned no dataset")}
	}
	return d, nil
}

func write(ctx context.Context, batch *delimited.Batch, artifacts []artifact, parallel bool) error {
	if !parallel {
		for _, a := range artifacts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := batch.Write(a.path, a.rows); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return batch.Write(a.path, a.rows)
		})
	}
	return g.Wait()
}
