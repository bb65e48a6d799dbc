package host

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// LineFeed is the single reader of an input stream. One goroutine reads a
// line only when a caller asks for one. A caller that gives up before the
// line arrives leaves it for the next caller, so a timed-out prompt never
// swallows input meant for the prompt that follows.
type LineFeed struct {
	in    *bufio.Reader
	turn  chan struct{}
	reqs  chan struct{}
	lines chan lineResult
	start sync.Once

	// Guarded by turn.
	outstanding bool
	held        *lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewLineFeed wraps r. Passing a *bufio.Reader reuses its buffer.
func NewLineFeed(r io.Reader) *LineFeed {
	return &LineFeed{
		in:    bufio.NewReader(r),
		turn:  make(chan struct{}, 1),
		reqs:  make(chan struct{}, 1),
		lines: make(chan lineResult, 1),
	}
}

// ReadLine returns the next line including its newline, with the same
// contract as bufio.Reader.ReadString. It returns ctx.Err() if ctx ends
// first; the line then goes to the next caller.
func (f *LineFeed) ReadLine(ctx context.Context) (string, error) {
	select {
	case f.turn <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-f.turn }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if res := f.held; res != nil {
		f.held = nil
		return res.line, res.err
	}

	f.start.Do(func() { go f.run() })
	if !f.outstanding {
		f.reqs <- struct{}{}
		f.outstanding = true
	}

	select {
	case res := <-f.lines:
		f.outstanding = false
		if err := ctx.Err(); err != nil {
			f.held = &res
			return "", err
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending reports whether a caller that gave up left a read in flight or a
// line unclaimed.
func (f *LineFeed) Pending() bool {
	select {
	case f.turn <- struct{}{}:
		defer func() { <-f.turn }()
		return f.outstanding || f.held != nil
	default:
		return true
	}
}

func (f *LineFeed) run() {
	for range f.reqs {
		line, err := f.in.ReadString('\n')
		f.lines <- lineResult{line: line, err: err}
	}
}
