package delimited

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/jedib0t/go-pretty/v6/progress"
)

type staged struct {
	tmp  string
	dest string
}

// Batch writes a set of artifacts. When atomic, each artifact is written to a
// temporary file next to its destination and only moved into place by Commit.
// Write may be called from several goroutines.
type Batch struct {
	atomic bool
	pw     progress.Writer

	mutex  sync.Mutex
	staged []staged
}

func NewBatch(atomic bool, pw progress.Writer) *Batch {
	return &Batch{atomic: atomic, pw: pw}
}

// Write encodes rows to path, or to a temporary file staged for path.
func (b *Batch) Write(path string, rows Rows) error {
	tracker := b.tracker(path, rows.Len())

	if !b.atomic {
		if err := WriteFile(path, rows, tracker); err != nil {
			markErrored(tracker)
			return err
		}
		markDone(tracker)
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		markErrored(tracker)
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	b.mutex.Lock()
	b.staged = append(b.staged, staged{tmp: tmpPath, dest: path})
	b.mutex.Unlock()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		markErrored(tracker)
		return &IOError{Op: "chmod", Path: path, Err: err}
	}

	if err := encodeTo(tmp, rows, tracker); err != nil {
		tmp.Close()
		markErrored(tracker)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		markErrored(tracker)
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		markErrored(tracker)
		return &IOError{Op: "close", Path: path, Err: err}
	}

	markDone(tracker)
	return nil
}

// Commit moves staged artifacts into place in the order they were written.
// It stops at the first failed rename and removes the remaining temporary
// files.
func (b *Batch) Commit() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, s := range b.staged {
		if err := os.Rename(s.tmp, s.dest); err != nil {
			for _, rest := range b.staged[i:] {
				_ = os.Remove(rest.tmp)
			}
			b.staged = nil
			return &IOError{Op: "rename", Path: s.dest, Err: err}
		}
	}
	b.staged = nil
	return nil
}

// Abort removes every staged temporary file.
func (b *Batch) Abort() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var errs []error
	for _, s := range b.staged {
		if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	b.staged = nil
	return errors.Join(errs...)
}

func (b *Batch) tracker(path string, total int) *progress.Tracker {
	if b.pw == nil {
		return nil
	}
	tracker := &progress.Tracker{
		Message: "Writing " + filepath.Base(path),
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	b.pw.AppendTracker(tracker)
	tracker.Start()
	return tracker
}

func markDone(tracker *progress.Tracker) {
	if tracker != nil {
		tracker.MarkAsDone()
	}
}

func markErrored(tracker *progress.Tracker) {
	if tracker != nil {
		tracker.MarkAsErrored()
	}
}
