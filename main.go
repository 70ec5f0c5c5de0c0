package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/grexie/mnistcsv/pkg/cache"
	"github.com/grexie/mnistcsv/pkg/config"
	"github.com/grexie/mnistcsv/pkg/dataset"
	"github.com/grexie/mnistcsv/pkg/delimited"
	"github.com/grexie/mnistcsv/pkg/export"
	"github.com/grexie/mnistcsv/pkg/flatten"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/joho/godotenv"
)

func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

// exitCode maps a failed run to the process status.
func exitCode(err error) int {
	var (
		perr  *dataset.ProviderError
		serr  *flatten.ShapeError
		ioErr *delimited.IOError
	)
	switch {
	case errors.As(err, &perr):
		return 2
	case errors.As(err, &serr):
		return 3
	case errors.As(err, &ioErr):
		return 4
	default:
		return 1
	}
}

func newProgressWriter() progress.Writer {
	pw := progress.NewWriter()
	pw.SetMessageLength(40)
	pw.SetNumTrackersExpected(5)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Options.PercentFormat = "%2.0f%%"
	return pw
}

func run(ctx context.Context, params config.Params) (*export.Summary, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	c, err := cache.Open(ctx, params.Cache)
	if err != nil {
		log.Printf("cache disabled, failed to open %s: %v", params.Cache, err)
	} else if c != nil {
		defer c.Close()
	}

	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return nil, &delimited.IOError{Op: "mkdir", Path: params.OutputDir, Err: err}
	}

	pw := newProgressWriter()
	go pw.Render()
	defer func() {
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(100 * time.Millisecond)
		}
	}()

	provider := dataset.NewMNIST(params.SourceURL, params.DataDir, c)
	return export.Run(ctx, pw, provider, params.Outputs, export.Options{
		Atomic:   params.Atomic,
		Parallel: params.Parallel,
	})
}

func main() {
	if _, ok := os.LookupEnv("ENV"); !ok {
		env := "development"
		os.Setenv("ENV", env)
	}
	loadEnv(".env."+os.Getenv("ENV")+".local", ".env."+os.Getenv("ENV"), ".env.local", ".env")

	params := config.NewParamsFromEnv()
	params.Write(os.Stdout, "Export Config")

	summary, err := run(context.Background(), params)
	if err != nil {
		log.Printf("export failed: %v", err)
		os.Exit(exitCode(err))
	}

	summary.Write(os.Stdout)
	fmt.Println("CSV files written.")
}
