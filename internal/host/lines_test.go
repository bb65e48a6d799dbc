package host_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/host"
)

func TestLineFeed_ReadsInOrder(t *testing.T) {
	t.Parallel()

	feed := host.NewLineFeed(strings.NewReader("one\ntwo\nlast"))
	ctx := context.Background()

	for _, want := range []string{"one\n", "two\n"} {
		line, err := feed.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	line, err := feed.ReadLine(ctx)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "last", line)

	_, err = feed.ReadLine(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestLineFeed_AbandonedReadGoesToNextCaller(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	feed := host.NewLineFeed(pr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := feed.ReadLine(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, feed.Pending())

	go func() { _, _ = io.WriteString(pw, "1234\nnext\n") }()

	line, err := feed.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234\n", line)

	line, err = feed.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "next\n", line)
	assert.False(t, feed.Pending())
}

func TestLineFeed_EndedContextReadsNothing(t *testing.T) {
	t.Parallel()

	feed := host.NewLineFeed(strings.NewReader("kept\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.ReadLine(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, feed.Pending())

	line, err := feed.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kept\n", line)
}
