// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]error, 0, len(e.Errors))
	for _, pe := range e.Errors {
		out = append(out, pe.Err)
	}
	return out
}

func (e *ProcessingErrors) sort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	sort.SliceStable(e.Errors, func(i, j int) bool { return e.Errors[i].Path < e.Errors[j].Path })
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file processing error occurs.
// Receives the file path and the error. If nil, errors are silently skipped.
type ErrorFunc func(path string, err error)

// Options tunes a fan-out.
type Options struct {
	// Workers bounds concurrency; <= 0 means DefaultWorkers.
	Workers    int
	OnProgress ProgressFunc
	OnError    ErrorFunc
}

// Result is the outcome of processing one path.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Process runs fn for every path on a bounded pool and returns one result
// per path in input order, whatever order the workers finish in. Paths not
// started before ctx is cancelled carry the context error.
func Process[T any](ctx context.Context, paths []string, opts Options, fn func(context.Context, string) (T, error)) []Result[T] {
	if len(paths) == 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	results := make([]Result[T], len(paths))
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			// Each worker writes only its own slot.
			results[i].Path = path
			defer func() {
				if opts.OnProgress != nil {
					opts.OnProgress()
				}
			}()

			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(ctx, path)
			results[i].Value = v
			results[i].Err = err
			if err != nil && opts.OnError != nil {
				opts.OnError(path, err)
			}
			return nil
		})
	}
	_ = p.Wait()
	return results
}

// MapFiles processes paths concurrently and returns the successful values
// in input order together with the failures, sorted by path. The returned
// errors are nil when every path succeeded.
func MapFiles[T any](ctx context.Context, paths []string, opts Options, fn func(context.Context, string) (T, error)) ([]T, *ProcessingErrors) {
	results := Process(ctx, paths, opts, fn)
	if results == nil {
		return nil, nil
	}

	values := make([]T, 0, len(results))
	errs := &ProcessingErrors{}
	for _, r := range results {
		if r.Err != nil {
			errs.Add(r.Path, r.Err)
			continue
		}
		values = append(values, r.Value)
	}
	if !errs.HasErrors() {
		return values, nil
	}
	errs.sort()
	return values, errs
}

// Fold processes paths concurrently and folds the values into acc in input
// order, so the result matches a sequential pass. Failed paths are skipped
// by the fold and collected in the returned errors.
func Fold[T, A any](ctx context.Context, paths []string, opts Options, acc A, fn func(context.Context, string) (T, error), merge func(A, string, T) A) (A, *ProcessingErrors) {
	var errs *ProcessingErrors
	for _, r := range Process(ctx, paths, opts, fn) {
		if r.Err != nil {
			if errs == nil {
				errs = &ProcessingErrors{}
			}
			errs.Add(r.Path, r.Err)
			continue
		}
		acc = merge(acc, r.Path, r.Value)
	}
	return acc, errs
}
