// Package host drives a lock.Engine from a terminal. It plays the part of
// the application shell: it reports lifecycle changes, shows the lock
// prompt, and prints confirmations. Commands arrive one per line on the
// input stream; job-control signals map to background and foreground.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/metrics"
	"github.com/mrz1836/lockgate/internal/output"
	"github.com/mrz1836/lockgate/internal/secmem"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// Throttle keys.
const (
	MethodPIN       = "pin"
	MethodBiometric = "biometric"
)

// DefaultBiometricTimeout bounds how long the host waits on a sensor.
const DefaultBiometricTimeout = 30 * time.Second

// PINReader prompts for a PIN and returns it. Callers wipe the result.
type PINReader func(prompt string) ([]byte, error)

// Options configures a Session.
type Options struct {
	In io.Reader
	// Lines takes precedence over In when other readers share the input.
	Lines    *LineFeed
	Out      io.Writer
	Notifier *output.Notifier
	// ReadPIN defaults to reading one line from In.
	ReadPIN          PINReader
	Throttle         *Throttle
	Logger           *config.Logger
	Metrics          *metrics.Metrics
	BiometricTimeout time.Duration
	// Signals enables SIGTSTP/SIGCONT handling where supported.
	Signals bool
}

// Session is one interactive host run.
type Session struct {
	ID string

	engine   *lock.Engine
	in       *LineFeed
	out      io.Writer
	notify   *output.Notifier
	readPIN  PINReader
	throttle *Throttle
	log      *config.Logger
	metrics  *metrics.Metrics
	bioWait  time.Duration
	signals  bool
}

// New wires a session to engine.
func New(engine *lock.Engine, opts Options) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		engine:   engine,
		in:       opts.Lines,
		out:      opts.Out,
		notify:   opts.Notifier,
		readPIN:  opts.ReadPIN,
		throttle: opts.Throttle,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		bioWait:  opts.BiometricTimeout,
		signals:  opts.Signals,
	}
	if s.in == nil {
		s.in = NewLineFeed(opts.In)
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.notify == nil {
		s.notify = output.NewNotifier(s.out, s.out, output.FormatText)
	}
	if s.readPIN == nil {
		s.readPIN = s.readLinePIN
	}
	if s.throttle == nil {
		s.throttle = NewThrottle(config.Defaults().Lock.UnlockAttemptsPerMinute)
	}
	if s.log == nil {
		s.log = config.NullLogger()
	}
	if s.metrics == nil {
		s.metrics = metrics.Global
	}
	if s.bioWait <= 0 {
		s.bioWait = DefaultBiometricTimeout
	}
	return s
}

func (s *Session) readLinePIN(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadLine(context.Background())
	if err != nil && line == "" {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// Run signals readiness to the engine and processes commands until quit,
// end of input, or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	s.log.SetSession(s.ID[:8])
	s.log.Info("host session started")
	defer s.log.Info("host session ended")

	cancel := s.engine.Subscribe(s.announce)
	defer cancel()

	if s.signals {
		stop := watchJobControl(s.engine, s.log)
		defer stop()
	}

	s.engine.NotifyReady()
	s.printState(s.engine.State())

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := make(chan string)
	next := make(chan struct{})
	readErr := make(chan error, 1)
	go s.readLines(readCtx, lines, next, readErr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line := <-lines:
			quit, err := s.Execute(ctx, line)
			if err != nil {
				_ = output.FormatError(s.out, err, output.FormatText)
			}
			if quit {
				return nil
			}
			select {
			case next <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// readLines hands one line at a time to Run and waits for next before
// reading again, so a command may read from the same input meanwhile.
func (s *Session) readLines(ctx context.Context, lines chan<- string, next <-chan struct{}, errs chan<- error) {
	for {
		_, _ = fmt.Fprint(s.out, "> ")
		line, err := s.in.ReadLine(ctx)
		if ctx.Err() != nil {
			return
		}
		if line != "" {
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errs <- err
			return
		}
	}
}

func (s *Session) announce(state lock.State) {
	s.log.Info("gate %s", state)
	s.printState(state)
}

func (s *Session) printState(state lock.State) {
	if state == lock.Locked {
		s.notify.Info("🔒 Locked")
		return
	}
	s.notify.Info("🔓 Unlocked")
}

// Execute runs one command line. It reports quit for "quit" and "exit".
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ok := commands[name]
	if !ok {
		return false, unknownCommand(name)
	}
	s.log.Debug("command %s", name)
	return cmd.run(ctx, s, args)
}

func (s *Session) unlock(ctx context.Context, pinOnly bool) error {
	if s.engine.State() != lock.Locked {
		s.notify.Info("Already unlocked")
		return nil
	}

	settings := s.engine.Settings()
	if !pinOnly && settings.BiometricEnabled && s.engine.IsBiometricCapable() {
		ok, err := s.tryBiometric(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		s.notify.Warn("Biometric verification failed, falling back to PIN")
	}
	return s.tryPIN()
}

func (s *Session) tryBiometric(ctx context.Context) (bool, error) {
	if s.throttle.Blocked(MethodBiometric) {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.bioWait)
	defer cancel()

	if !s.engine.AuthenticateBiometrically(ctx) {
		s.throttle.Fail(MethodBiometric)
		return false, nil
	}
	if err := s.unlockEngine(); err != nil {
		return false, err
	}
	s.throttle.Reset(MethodBiometric)
	s.notify.Successf("Unlocked with %s", s.engine.BiometricModality())
	return true, nil
}

func (s *Session) tryPIN() error {
	if s.throttle.Blocked(MethodPIN) {
		s.metrics.RecordThrottled()
		wait := s.throttle.RetryAfter(MethodPIN).Round(time.Second)
		return gateerr.WithSuggestion(gateerr.ErrRateLimited, fmt.Sprintf("try again in %s", wait))
	}

	raw, err := s.readPIN("Enter PIN: ")
	if err != nil {
		return gateerr.Wrap(err, "reading PIN")
	}
	pin := secmem.Take(raw)
	defer pin.Destroy()

	if !s.engine.Verify(pin.Bytes()) {
		s.throttle.Fail(MethodPIN)
		s.log.Info("unlock rejected")
		return gateerr.ErrWrongPIN
	}
	if err := s.unlockEngine(); err != nil {
		return err
	}
	s.throttle.Reset(MethodPIN)
	s.notify.Success("Unlocked")
	return nil
}

// unlockEngine treats a concurrent unlock as success.
func (s *Session) unlockEngine() error {
	err := s.engine.Unlock()
	if errors.Is(err, lock.ErrNotLocked) {
		return nil
	}
	if errors.Is(err, gateerr.ErrPersistFailed) {
		s.notify.Warnf("Unlocked, but %v", err)
		return nil
	}
	return err
}
