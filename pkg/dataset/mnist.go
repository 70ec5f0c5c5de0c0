package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/grexie/mnistcsv/pkg/cache"
	"github.com/jedib0t/go-pretty/v6/progress"
)

const DefaultBaseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

// File is one archive of the dataset. Digest is the hex sha256 of the gzip
// archive; an empty digest skips the check.
type File struct {
	Name   string
	Digest string
}

type Files struct {
	TrainImages File
	TrainLabels File
	TestImages  File
	TestLabels  File
}

var DefaultFiles = Files{
	TrainImages: File{"train-images-idx3-ubyte.gz", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"},
	TrainLabels: File{"train-labels-idx1-ubyte.gz", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"},
	TestImages:  File{"t10k-images-idx3-ubyte.gz", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"},
	TestLabels:  File{"t10k-labels-idx1-ubyte.gz", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"},
}

// MNIST loads the four IDX archives, looking in Dir first, then Cache, then
// downloading from BaseURL. Downloads are written back to Cache.
type MNIST struct {
	BaseURL string
	Dir     string
	Files   Files
	Cache   cache.Cache
	Client  *resty.Client
}

func NewMNIST(baseURL, dir string, c cache.Cache) *MNIST {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &MNIST{
		BaseURL: baseURL,
		Dir:     dir,
		Files:   DefaultFiles,
		Cache:   c,
		Client:  resty.New(),
	}
}

func (m *MNIST) Load(ctx context.Context) (*Dataset, error) {
	return m.LoadWithProgress(ctx, nil)
}

func (m *MNIST) LoadWithProgress(ctx context.Context, pw progress.Writer) (*Dataset, error) {
	tracker := &progress.Tracker{
		Message: "Loading MNIST",
		Total:   4,
		Units:   progress.UnitsDefault,
	}
	if pw != nil {
		pw.AppendTracker(tracker)
	}
	tracker.Start()

	train, err := m.loadSplit(ctx, tracker, "train", m.Files.TrainImages, m.Files.TrainLabels)
	if err != nil {
		tracker.MarkAsErrored()
		return nil, err
	}
	test, err := m.loadSplit(ctx, tracker, "test", m.Files.TestImages, m.Files.TestLabels)
	if err != nil {
		tracker.MarkAsErrored()
		return nil, err
	}

	tracker.MarkAsDone()
	return &Dataset{Train: train, Test: test}, nil
}

func (m *MNIST) loadSplit(ctx context.Context, tracker *progress.Tracker, name string, images, labels File) (Split, error) {
	var split Split

	if data, err := m.read(ctx, images); err != nil {
		return split, err
	} else if split.Samples, err = ReadIDXImages(bytes.NewReader(data)); err != nil {
		return split, &ProviderError{Source: images.Name, Err: err}
	}
	tracker.Increment(1)

	if data, err := m.read(ctx, labels); err != nil {
		return split, err
	} else if split.Labels, err = ReadIDXLabels(bytes.NewReader(data)); err != nil {
		return split, &ProviderError{Source: labels.Name, Err: err}
	}
	tracker.Increment(1)

	return split, split.Validate(name)
}

// read returns the decompressed IDX payload of f.
func (m *MNIST) read(ctx context.Context, f File) ([]byte, error) {
	if data, ok, err := m.readLocal(f); err != nil {
		return nil, &ProviderError{Source: f.Name, Err: err}
	} else if ok {
		return m.decode(f, data)
	}

	if m.Cache != nil {
		if data, err := m.Cache.Get(ctx, f.Name); err == nil {
			if err := verify(f, data); err != nil {
				return nil, &ProviderError{Source: f.Name, Err: fmt.Errorf("cached archive: %w", err)}
			}
			return m.decode(f, data)
		} else if !errors.Is(err, cache.ErrNotFound) {
			return nil, &ProviderError{Source: f.Name, Err: fmt.Errorf("cache: %w", err)}
		}
	}

	data, err := m.download(ctx, f)
	if err != nil {
		return nil, &ProviderError{Source: f.Name, Err: err}
	}
	if err := verify(f, data); err != nil {
		return nil, &ProviderError{Source: f.Name, Err: err}
	}

	if m.Cache != nil {
		if err := m.Cache.Put(ctx, f.Name, data); err != nil {
			log.Printf("failed to cache %s: %v", f.Name, err)
		}
	}

	return m.decode(f, data)
}

// readLocal looks for f in Dir, either as the archive or uncompressed.
func (m *MNIST) readLocal(f File) ([]byte, bool, error) {
	if m.Dir == "" {
		return nil, false, nil
	}
	for _, name := range []string{f.Name, strings.TrimSuffix(f.Name, ".gz")} {
		path := filepath.Join(m.Dir, name)
		if s, err := os.Stat(path); err != nil || s.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
	return nil, false, nil
}

func (m *MNIST) download(ctx context.Context, f File) ([]byte, error) {
	client := m.Client
	if client == nil {
		client = resty.New()
	}

	url := strings.TrimSuffix(m.BaseURL, "/") + "/" + f.Name
	log.Printf("downloading %s", url)

	if resp, err := client.R().SetContext(ctx).Get(url); err != nil {
		return nil, err
	} else if resp.IsError() {
		return nil, fmt.Errorf("error response: %v", resp.Status())
	} else {
		return resp.Body(), nil
	}
}

func (m *MNIST) decode(f File, data []byte) ([]byte, error) {
	if out, err := gunzip(data); err != nil {
		return nil, &ProviderError{Source: f.Name, Err: fmt.Errorf("gzip: %w", err)}
	} else {
		return out, nil
	}
}

func verify(f File, data []byte) error {
	if f.Digest == "" {
		return nil
	}
	if sum := fmt.Sprintf("%x", sha256.Sum256(data)); sum != f.Digest {
		return fmt.Errorf("sha256 mismatch: got %s, want %s", sum, f.Digest)
	}
	return nil
}
