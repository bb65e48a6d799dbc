package biometric

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/lockgate/internal/lock"
)

// Decision answers one biometric challenge.
type Decision func(ctx context.Context, reason string) (bool, error)

// Scripted is a simulated sensor whose answers come from a Decision.
type Scripted struct {
	modality lock.Modality
	decide   Decision
	delay    time.Duration
}

// NewScripted returns a sensor that answers with outcomes in order,
// repeating the last one once the list is used up. With no outcomes every
// challenge fails.
func NewScripted(modality lock.Modality, outcomes ...bool) *Scripted {
	var mu sync.Mutex
	next := 0
	return &Scripted{
		modality: modality,
		decide: func(context.Context, string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(outcomes) == 0 {
				return false, nil
			}
			ok := outcomes[min(next, len(outcomes)-1)]
			next++
			return ok, nil
		},
	}
}

// LineSource hands out input one line at a time and gives up when ctx ends.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// NewPrompted returns a sensor that asks the user to accept or reject each
// challenge. Anything but a line starting with "y" is a rejection. A
// challenge that times out stops waiting and leaves the line unread.
func NewPrompted(modality lock.Modality, in LineSource, out io.Writer) *Scripted {
	return &Scripted{
		modality: modality,
		decide: func(ctx context.Context, reason string) (bool, error) {
			_, _ = fmt.Fprintf(out, "[simulated %s] %s - accept? [y/N]: ", modality, reason)
			line, err := in.ReadLine(ctx)
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if err != nil && line == "" {
				return false, fmt.Errorf("reading answer: %w", err)
			}
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"), nil
		},
	}
}

// WithDelay makes every challenge take at least d, or until ctx ends.
func (s *Scripted) WithDelay(d time.Duration) *Scripted {
	s.delay = d
	return s
}

// Available reports true unless the modality is none.
func (s *Scripted) Available() bool { return s.modality != lock.ModalityNone }

// Modality returns the simulated sensor kind.
func (s *Scripted) Modality() lock.Modality { return s.modality }

// Authenticate waits out the delay and returns the scripted answer.
func (s *Scripted) Authenticate(ctx context.Context, reason string) (bool, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}
	return s.decide(ctx, reason)
}
