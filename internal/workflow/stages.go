package workflow

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chr1sbest/splice/internal/script"
	"github.com/chr1sbest/splice/internal/splice"
)

// Stage names used in errors and logs.
const (
	StageExtract = "extract"
	StageMerge   = "merge"
)

// ProgressFunc is told how many files have been extracted so far. Calls
// come from several goroutines but never overlap, and done only increases.
type ProgressFunc func(done, total int)

// Extract evaluates source once and calls its Extract function for every
// file concurrently. Records come back in selection order. If any call
// fails the whole stage fails and no records are returned.
func Extract(ctx context.Context, ev *script.Evaluator, files []splice.File, source string, progress ProgressFunc) ([]splice.Record, error) {
	b, err := ev.Evaluate(StageExtract, source)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Index: -1, Err: err}
	}
	if b.Extract == nil {
		return nil, &StageError{Stage: StageExtract, Index: -1, Err: fmt.Errorf("%w: %s", ErrMissingFunction, script.ExtractFunc)}
	}

	records := make([]splice.Record, len(files))

	// Script code runs one call at a time, so package-level state in a
	// script is never touched concurrently. Futures it returns are awaited
	// outside the lock and overlap freely.
	var scriptMu sync.Mutex
	call := func(f splice.File, i int) (interface{}, error) {
		scriptMu.Lock()
		defer scriptMu.Unlock()
		return b.Extract(f, i, files)
	}

	var progressMu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			v, err := call(f, i)
			if err == nil {
				v, err = splice.Resolve(gctx, v)
			}
			if err != nil {
				return &StageError{Stage: StageExtract, Index: i, File: f.Name, Err: err}
			}
			records[i] = splice.Record{File: f, Data: v}
			if progress != nil {
				progressMu.Lock()
				done++
				progress(done, len(files))
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Merge evaluates source once, calls its Merge function with all records and
// normalizes the result into a Blob.
func Merge(ctx context.Context, ev *script.Evaluator, records []splice.Record, source string) (splice.Blob, error) {
	b, err := ev.Evaluate(StageMerge, source)
	if err != nil {
		return splice.Blob{}, &StageError{Stage: StageMerge, Index: -1, Err: err}
	}
	if b.Merge == nil {
		return splice.Blob{}, &StageError{Stage: StageMerge, Index: -1, Err: fmt.Errorf("%w: %s", ErrMissingFunction, script.MergeFunc)}
	}

	v, err := b.Merge(records)
	if err == nil {
		v, err = splice.Resolve(ctx, v)
	}
	if err != nil {
		return splice.Blob{}, &StageError{Stage: StageMerge, Index: -1, Err: err}
	}

	blob, err := Normalize(v)
	if err != nil {
		return splice.Blob{}, &StageError{Stage: StageMerge, Index: -1, Err: err}
	}
	return blob, nil
}

// Normalize converts a merge result into a Blob. Blobs pass through with
// their type, byte slices become binary blobs and text becomes a plain-text
// blob.
func Normalize(v interface{}) (splice.Blob, error) {
	switch r := v.(type) {
	case splice.Blob:
		return r, nil
	case *splice.Blob:
		if r == nil {
			return splice.Blob{}, &ResultTypeError{Type: "nil *splice.Blob"}
		}
		return *r, nil
	case []byte:
		return splice.NewBlob(r, splice.TypeBinary), nil
	case string:
		return splice.TextBlob(r), nil
	case fmt.Stringer:
		return splice.TextBlob(r.String()), nil
	case nil:
		return splice.Blob{}, &ResultTypeError{Type: "nil"}
	default:
		return splice.Blob{}, &ResultTypeError{Type: fmt.Sprintf("%T", v)}
	}
}
