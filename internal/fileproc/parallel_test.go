package fileproc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/source"
	"github.com/panbanda/gdlens/pkg/testutil"
)

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("res://script_%02d.gd", i)
	}
	return out
}

func TestProcess_Order(t *testing.T) {
	in := paths(40)
	results := Process(context.Background(), in, Options{Workers: 8}, func(_ context.Context, p string) (string, error) {
		// Later paths finish first.
		time.Sleep(time.Duration('9'-p[len(p)-4]) * 50 * time.Microsecond)
		return strings.ToUpper(p), nil
	})

	require.Len(t, results, len(in))
	for i, r := range results {
		assert.Equal(t, in[i], r.Path)
		assert.Equal(t, strings.ToUpper(in[i]), r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestProcess_Empty(t *testing.T) {
	results := Process(context.Background(), nil, Options{}, func(context.Context, string) (int, error) {
		return 1, nil
	})
	assert.Nil(t, results)
}

func TestProcess_Callbacks(t *testing.T) {
	var progress, failures atomic.Int32
	in := paths(10)
	Process(context.Background(), in, Options{
		Workers:    3,
		OnProgress: func() { progress.Add(1) },
		OnError:    func(string, error) { failures.Add(1) },
	}, func(_ context.Context, p string) (int, error) {
		if strings.HasSuffix(p, "3.gd") {
			return 0, errors.New("boom")
		}
		return 1, nil
	})
	assert.Equal(t, int32(10), progress.Load())
	assert.Equal(t, int32(1), failures.Load())
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Process(ctx, paths(5), Options{Workers: 1}, func(context.Context, string) (int, error) {
		calls.Add(1)
		return 1, nil
	})
	assert.Zero(t, calls.Load())
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestMapFiles(t *testing.T) {
	in := paths(6)
	values, errs := MapFiles(context.Background(), in, Options{Workers: 4}, func(_ context.Context, p string) (string, error) {
		if strings.HasSuffix(p, "1.gd") || strings.HasSuffix(p, "4.gd") {
			return "", errors.New("unreadable")
		}
		return p, nil
	})

	assert.Equal(t, []string{in[0], in[2], in[3], in[5]}, values)
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
	require.Equal(t, 2, errs.Len())
	assert.Equal(t, in[1], errs.Errors[0].Path)
	assert.Equal(t, in[4], errs.Errors[1].Path)
	assert.Contains(t, errs.Error(), "2 files failed")
}

func TestMapFiles_NoErrors(t *testing.T) {
	values, errs := MapFiles(context.Background(), paths(3), Options{}, func(_ context.Context, p string) (int, error) {
		return len(p), nil
	})
	assert.Len(t, values, 3)
	assert.Nil(t, errs)
	assert.False(t, errs.HasErrors())
}

func TestFold(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	got, errs := Fold(context.Background(), in, Options{Workers: 4}, "",
		func(_ context.Context, p string) (string, error) {
			if p == "c" {
				return "", errors.New("skip")
			}
			return strings.ToUpper(p), nil
		},
		func(acc, _ string, v string) string { return acc + v },
	)
	assert.Equal(t, "ABD", got)
	require.NotNil(t, errs)
	assert.Equal(t, "c: skip", errs.Error())
}

func TestProcessingErrors_Unwrap(t *testing.T) {
	errs := &ProcessingErrors{}
	errs.Add("res://a.gd", models.ErrEmpty)
	assert.ErrorIs(t, errs, models.ErrEmpty)
	assert.Equal(t, "res://a.gd: file is empty", errs.Error())

	empty := &ProcessingErrors{}
	assert.Equal(t, "no errors", empty.Error())
}

func TestMapSource(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "/game", map[string]string{
		"a.gd": "extends Node\n",
		"b.gd": "",
	})
	src := source.NewFS(fs)

	values, errs := MapSource(context.Background(), []string{"/game/a.gd", "/game/b.gd", "/game/c.gd"}, src, Options{},
		func(_ context.Context, _ string, content []byte) (int, error) {
			return len(content), nil
		})

	assert.Equal(t, []int{13}, values)
	require.NotNil(t, errs)
	require.Equal(t, 2, errs.Len())
	assert.ErrorIs(t, errs.Errors[0].Err, models.ErrEmpty)
	assert.ErrorIs(t, errs.Errors[1].Err, models.ErrNotFound)
}
