package framework

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		unblock := make(chan struct{})
		closed := 0
		closer := closerFunc(func() error {
			closed++
			close(unblock)
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RunWithContextCloser(ctx, closer, func() error {
			<-unblock
			return io.EOF
		})
		require.Equal(t, context.Canceled, err)
		assert.Equal(t, 1, closed)
	})
	t.Run("exit", func(t *testing.T) {
		closed := 0
		closer := closerFunc(func() error { closed++; return nil })
		err := RunWithContextCloser(context.Background(), closer, func() error {
			return io.EOF
		})
		require.Equal(t, io.EOF, err)
		assert.Equal(t, 1, closed)
	})
}

func TestRunnerWaitIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).FailFast()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	cancel()
	assert.NoError(t, r.Wait())
}

func TestRunnerFailFast(t *testing.T) {
	failure := errors.New("boom")
	r := NewRunner().FailFast()
	r.Go(
		RunFunc(func(context.Context) error { return failure }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	assert.ErrorIs(t, r.Wait(), failure)
}
