package dataset

import (
	"context"
	"fmt"
)

// Grid is one sample: H rows of W pixel intensities.
type Grid [][]int

type SampleCollection []Grid

type LabelCollection []int

// Split pairs samples with their labels by index.
type Split struct {
	Samples SampleCollection
	Labels  LabelCollection
}

type Dataset struct {
	Train Split
	Test  Split
}

// Provider acquires a materialized dataset. Implementations report failures
// as *ProviderError.
type Provider interface {
	Load(ctx context.Context) (*Dataset, error)
}

type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("dataset: %v", e.Err)
	}
	return fmt.Sprintf("dataset %s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Validate checks that samples and labels are index-aligned.
func (s Split) Validate(name string) error {
	if len(s.Samples) != len(s.Labels) {
		return &ProviderError{
			Source: name,
			Err:    fmt.Errorf("sample count (%d) != label count (%d)", len(s.Samples), len(s.Labels)),
		}
	}
	return nil
}

// Static serves an already loaded dataset.
type Static struct {
	Dataset Dataset
}

func (s *Static) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Source: "static", Err: err}
	}
	d := s.Dataset
	return &d, nil
}
