package export

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/grexie/mnistcsv/pkg/dataset"
	"github.com/grexie/mnistcsv/pkg/flatten"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"
)

type SplitSummary struct {
	Samples int
	Height  int
	Width   int
	Fields  int
	// Labels counts samples per label value.
	Labels map[int]int
	// Mean and standard deviation of the per-sample mean intensity.
	IntensityMean   float64
	IntensityStdDev float64
}

type Summary struct {
	Train   SplitSummary
	Test    SplitSummary
	Outputs Outputs

	LoadDuration    time.Duration
	FlattenDuration time.Duration
	WriteDuration   time.Duration
}

func newSummary(d *dataset.Dataset, train, test *flatten.Collection, outputs Outputs) (*Summary, error) {
	s := &Summary{Outputs: outputs}
	var err error
	if s.Train, err = newSplitSummary(d.Train, train); err != nil {
		return nil, err
	}
	if s.Test, err = newSplitSummary(d.Test, test); err != nil {
		return nil, err
	}
	return s, nil
}

func newSplitSummary(split dataset.Split, flat *flatten.Collection) (SplitSummary, error) {
	s := SplitSummary{
		Samples: flat.Len(),
		Fields:  flat.Width(),
		Labels:  map[int]int{},
	}
	if len(split.Samples) > 0 {
		s.Height = len(split.Samples[0])
		if s.Height > 0 {
			s.Width = len(split.Samples[0][0])
		}
	}
	for _, label := range split.Labels {
		s.Labels[label]++
	}

	if flat.Len() > 0 && flat.Width() > 0 {
		sums, err := flat.RowSums()
		if err != nil {
			return s, err
		}
		means := make([]float64, len(sums))
		for i, sum := range sums {
			means[i] = float64(sum) / float64(flat.Width())
		}
		s.IntensityMean, s.IntensityStdDev = stat.MeanStdDev(means, nil)
		if len(means) == 1 {
			s.IntensityStdDev = 0
		}
	}
	return s, nil
}

func (s *Summary) Write(w io.Writer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Splits")
	t.AppendHeader(table.Row{"", "SAMPLES", "SHAPE", "FIELDS", "INTENSITY MEAN", "INTENSITY STDDEV"})
	t.AppendRows([]table.Row{
		{"TRAIN", fmt.Sprintf("%d", s.Train.Samples), fmt.Sprintf("%dx%d", s.Train.Height, s.Train.Width), fmt.Sprintf("%d", s.Train.Fields), fmt.Sprintf("%0.02f", s.Train.IntensityMean), fmt.Sprintf("%0.02f", s.Train.IntensityStdDev)},
		{"TEST", fmt.Sprintf("%d", s.Test.Samples), fmt.Sprintf("%dx%d", s.Test.Height, s.Test.Width), fmt.Sprintf("%d", s.Test.Fields), fmt.Sprintf("%0.02f", s.Test.IntensityMean), fmt.Sprintf("%0.02f", s.Test.IntensityStdDev)},
	})
	t.Render()

	t = table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Labels")
	t.AppendHeader(table.Row{"LABEL", "TRAIN", "TEST"})
	for _, label := range labelValues(s.Train.Labels, s.Test.Labels) {
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", label),
			fmt.Sprintf("%d", s.Train.Labels[label]),
			fmt.Sprintf("%d", s.Test.Labels[label]),
		})
	}
	t.AppendFooter(table.Row{"TOTAL", fmt.Sprintf("%d", s.Train.Samples), fmt.Sprintf("%d", s.Test.Samples)})
	t.Render()

	t = table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Artifacts")
	t.AppendRows([]table.Row{
		{"Training samples", s.Outputs.TrainData},
		{"Training labels", s.Outputs.TrainLabels},
		{"Test samples", s.Outputs.TestData},
		{"Test labels", s.Outputs.TestLabels},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Load", s.LoadDuration.Round(time.Millisecond).String()},
		{"Flatten", s.FlattenDuration.Round(time.Millisecond).String()},
		{"Write", s.WriteDuration.Round(time.Millisecond).String()},
	})
	t.Render()

	return nil
}

func labelValues(maps ...map[int]int) []int {
	out := []int{}
	for _, m := range maps {
		for label := range m {
			out = append(out, label)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
