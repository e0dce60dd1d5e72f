package engine

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameHandle(t *testing.T) {
	Reset()
	defer Reset()

	first, err := Get("local[2]", "test-job")
	require.NoError(t, err)

	second, err := Get("local[8]", "another-job")
	require.NoError(t, err)

	// The engine is initialized once and reused; later mode strings are
	// ignored.
	require.Same(t, first, second)
	require.Equal(t, 2, second.Parallelism())
	require.Equal(t, "test-job", second.AppName())
}

func TestGetInvalidMode(t *testing.T) {
	Reset()
	defer Reset()

	_, err := Get("yarn", "test-job")
	require.Error(t, err)

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	require.Equal(t, "yarn", initErr.Mode)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode    string
		want    int
		wantErr bool
	}{
		{mode: "local", want: 1},
		{mode: "local[1]", want: 1},
		{mode: "local[4]", want: 4},
		{mode: "local[*]", want: runtime.NumCPU()},
		{mode: "local[0]", wantErr: true},
		{mode: "local[-2]", wantErr: true},
		{mode: "local[abc]", wantErr: true},
		{mode: "local[", wantErr: true},
		{mode: "", wantErr: true},
		{mode: "spark://host:7077", wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseMode(tc.mode)
		if tc.wantErr {
			require.Error(t, err, "mode %q", tc.mode)
			continue
		}
		require.NoError(t, err, "mode %q", tc.mode)
		require.Equal(t, tc.want, got, "mode %q", tc.mode)
	}
}

func TestRunParallel(t *testing.T) {
	Reset()
	defer Reset()

	eng, err := Get("local[3]", "test-job")
	require.NoError(t, err)

	var total int64
	err = eng.RunParallel(context.Background(), 100, func(i int) error {
		atomic.AddInt64(&total, int64(i))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(4950), total)
}

func TestRunParallelPropagatesError(t *testing.T) {
	Reset()
	defer Reset()

	eng, err := Get("local[2]", "test-job")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = eng.RunParallel(context.Background(), 10, func(i int) error {
		if i == 7 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}
