package fileproc

import (
	"context"

	"github.com/panbanda/gdlens/pkg/source"
)

// MapSource reads every path from src and processes the content
// concurrently. Read failures are reported like processing failures, so a
// missing or empty file never aborts the batch. Values keep input order.
func MapSource[T any](
	ctx context.Context,
	paths []string,
	src source.ContentSource,
	opts Options,
	fn func(ctx context.Context, path string, content []byte) (T, error),
) ([]T, *ProcessingErrors) {
	return MapFiles(ctx, paths, opts, func(ctx context.Context, path string) (T, error) {
		content, err := src.Read(path)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx, path, content)
	})
}
