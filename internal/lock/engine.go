// Package lock implements the session lock gate: policy-driven locking on
// lifecycle and inactivity events, credential hashing and verification,
// and the boundary to a biometric provider.
//
// An Engine is constructed once per process and shared by whatever owns
// the user session. All state sits behind one mutex; observers are
// notified after it is released.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mrz1836/lockgate/internal/metrics"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// Engine owns the lock settings, the activity clock, and the gate state.
type Engine struct {
	mu sync.Mutex

	store   Store
	clock   Clock
	sched   Scheduler
	hasher  Hasher
	bio     BiometricProvider
	log     Logger
	metrics *metrics.Metrics
	tick    time.Duration
	policy  CorruptPolicy
	reason  string

	settings     Settings
	lastActivity time.Time
	state        State
	phase        Phase
	evaluated    bool
	ready        bool
	failClosed   bool
	closed       bool

	stopTick func()
	armGen   uint64

	observers map[uint64]func(State)
	nextObs   uint64
}

// Status is a consistent snapshot of the engine.
type Status struct {
	State        State     `json:"state"`
	Phase        string    `json:"phase"`
	Settings     Settings  `json:"settings"`
	LastActivity time.Time `json:"last_activity"`
	Evaluated    bool      `json:"evaluated"`
	TimerArmed   bool      `json:"timer_armed"`
	FailClosed   bool      `json:"fail_closed"`
}

// NewEngine loads settings and the activity clock from store. It does not
// evaluate policy; the gate stays Unlocked until InitializeOnReady.
// Load failures are logged and replaced by defaults.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		clock:     SystemClock{},
		sched:     TickerScheduler{},
		hasher:    SHA256Hasher{},
		bio:       unavailableBiometric{},
		log:       nopLogger{},
		metrics:   &metrics.Metrics{},
		tick:      DefaultTickInterval,
		policy:    FailOpen,
		reason:    DefaultBiometricReason,
		state:     Unlocked,
		phase:     PhaseActive,
		observers: make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.settings = e.loadSettings()
	e.lastActivity = e.loadLastActivity()

	return e
}

func (e *Engine) loadSettings() Settings {
	settings, err := e.store.Load()
	if err == nil {
		if verr := settings.Validate(); verr != nil {
			err = fmt.Errorf("%w: %w", ErrSettingsCorrupt, verr)
		}
	}

	switch {
	case err == nil:
		return settings
	case errors.Is(err, ErrSettingsCorrupt):
		if e.policy == FailClosed {
			e.failClosed = true
			e.log.Error("lock settings corrupt, failing closed: %v", err)
		} else {
			e.log.Error("lock settings corrupt, using defaults: %v", err)
		}
	default:
		e.log.Error("loading lock settings, using defaults: %v", err)
	}
	return DefaultSettings()
}

func (e *Engine) loadLastActivity() time.Time {
	last, found, err := e.store.LoadLastActivity()
	if err != nil {
		e.log.Error("loading last activity: %v", err)
	}
	if found && err == nil {
		return last
	}

	now := e.clock.Now()
	if err := e.store.SaveLastActivity(now); err != nil {
		e.metrics.RecordPersist(err)
		e.log.Error("initializing last activity: %v", err)
	}
	return now
}

// apply runs fn under the mutex and notifies observers if the gate state
// changed.
func (e *Engine) apply(fn func() error) error {
	e.mu.Lock()
	before := e.state
	err := fn()
	after := e.state
	var notify []func(State)
	if after != before {
		notify = make([]func(State), 0, len(e.observers))
		for _, o := range e.observers {
			notify = append(notify, o)
		}
	}
	e.mu.Unlock()

	for _, o := range notify {
		o(after)
	}
	return err
}

// InitializeOnReady performs the first policy evaluation. Only the first
// call after construction or Disable has any effect.
func (e *Engine) InitializeOnReady() {
	_ = e.apply(func() error {
		if e.evaluated || e.closed {
			return nil
		}
		e.evaluated = true
		e.ready = true

		switch {
		case e.failClosed:
			e.setStateLocked(Locked, "ready with corrupt settings")
		case !e.settings.Enabled:
		case e.settings.Trigger == TriggerOnOpen:
			e.setStateLocked(Locked, "ready on_open")
		case e.settings.Trigger == TriggerOnBackground:
			e.setStateLocked(Unlocked, "ready on_background")
		case e.settings.Trigger == TriggerAfterInactivity:
			if e.inactiveLocked() {
				e.setStateLocked(Locked, "ready after inactivity")
			} else {
				e.setStateLocked(Unlocked, "ready within inactivity window")
			}
		}

		e.rearmLocked()
		return nil
	})
}

// OnLifecycleTransition applies trigger policy to a host phase change.
// Nothing happens while the gate is disabled.
func (e *Engine) OnLifecycleTransition(from, to Phase) {
	_ = e.apply(func() error {
		return e.transitionLocked(from, to)
	})
}

func (e *Engine) transitionLocked(from, to Phase) error {
	e.phase = to
	e.log.Debug("phase %s -> %s", from, to)

	if !e.settings.Enabled {
		return nil
	}

	switch e.settings.Trigger {
	case TriggerOnOpen:
		if to == PhaseBackground {
			e.setStateLocked(Locked, "backgrounded")
		}
	case TriggerOnBackground:
		if from == PhaseBackground && to == PhaseActive {
			e.lockLocked("returned from background")
		}
	case TriggerAfterInactivity:
	}

	if to == PhaseActive {
		return e.recordActivityLocked()
	}
	return nil
}

// OnPeriodicTick locks the gate when the inactivity window has elapsed.
// It only acts for the after_inactivity trigger.
func (e *Engine) OnPeriodicTick() {
	_ = e.apply(func() error {
		e.tickLocked()
		return nil
	})
}

func (e *Engine) tickLocked() {
	e.metrics.RecordTick()
	if !e.settings.Enabled || e.settings.Trigger != TriggerAfterInactivity {
		return
	}
	if e.inactiveLocked() {
		e.lockLocked("inactivity timeout")
	}
}

func (e *Engine) scheduledTick(gen uint64) {
	_ = e.apply(func() error {
		if gen != e.armGen || e.stopTick == nil {
			return nil
		}
		e.tickLocked()
		return nil
	})
}

// NotifyForeground tells the engine the host became active.
func (e *Engine) NotifyForeground() {
	e.notifyPhase(PhaseActive)
}

// NotifyBackground tells the engine the host moved to the background.
func (e *Engine) NotifyBackground() {
	e.notifyPhase(PhaseBackground)
}

// NotifyInactive tells the engine the host is visible but not interactive.
func (e *Engine) NotifyInactive() {
	e.notifyPhase(PhaseInactive)
}

func (e *Engine) notifyPhase(to Phase) {
	_ = e.apply(func() error {
		from := e.phase
		if from == to {
			return nil
		}
		return e.transitionLocked(from, to)
	})
}

// NotifyPeriodicTick delivers a host-driven tick.
func (e *Engine) NotifyPeriodicTick() {
	e.OnPeriodicTick()
}

// NotifyReady signals that the host has finished starting up.
func (e *Engine) NotifyReady() {
	e.InitializeOnReady()
}

// RecordActivity marks the user as active now and persists the time.
func (e *Engine) RecordActivity() error {
	return e.apply(e.recordActivityLocked)
}

func (e *Engine) recordActivityLocked() error {
	now := e.clock.Now()
	e.lastActivity = now
	err := e.store.SaveLastActivity(now)
	e.metrics.RecordPersist(err)
	if err != nil {
		e.log.Error("saving last activity: %v", err)
		return gateerr.WithCause(gateerr.ErrPersistFailed, err)
	}
	return nil
}

// Enable hashes candidate, stores it, and turns the gate on. The current
// session stays unlocked until the next qualifying event.
func (e *Engine) Enable(candidate []byte) error {
	if len(candidate) == 0 {
		return ErrEmptyCredential
	}
	hash, err := e.hasher.Hash(candidate)
	if err != nil {
		return fmt.Errorf("hashing credential: %w", err)
	}

	return e.apply(func() error {
		e.settings.CredentialHash = hash
		e.settings.Enabled = true
		e.failClosed = false
		e.log.Info("lock enabled (scheme %s)", e.hasher.Scheme())
		e.rearmLocked()
		return e.persistLocked()
	})
}

// Disable resets the policy to defaults, opens the gate, clears the
// evaluation guard, and disarms the inactivity check.
func (e *Engine) Disable() error {
	return e.apply(func() error {
		e.settings = DefaultSettings()
		e.setStateLocked(Unlocked, "disabled")
		e.evaluated = false
		e.failClosed = false
		e.disarmLocked()
		e.log.Info("lock disabled")
		return e.persistLocked()
	})
}

// ChangeCredential replaces the stored credential hash. The old
// credential stops verifying immediately.
func (e *Engine) ChangeCredential(candidate []byte) error {
	if len(candidate) == 0 {
		return ErrEmptyCredential
	}
	hash, err := e.hasher.Hash(candidate)
	if err != nil {
		return fmt.Errorf("hashing credential: %w", err)
	}

	return e.apply(func() error {
		if !e.settings.Enabled {
			return gateerr.ErrLockDisabled
		}
		e.settings.CredentialHash = hash
		e.log.Info("credential changed (scheme %s)", e.hasher.Scheme())
		return e.persistLocked()
	})
}

// Verify reports whether candidate matches the stored credential. It is
// false when no credential is configured.
func (e *Engine) Verify(candidate []byte) bool {
	e.mu.Lock()
	stored := append([]byte(nil), e.settings.CredentialHash...)
	e.mu.Unlock()

	ok := len(candidate) > 0 && VerifyHash(stored, candidate)
	e.metrics.RecordVerify(ok)
	return ok
}

// Unlock opens a locked gate and records activity. Callers must have
// verified the user first; Unlock does not check credentials.
func (e *Engine) Unlock() error {
	return e.apply(func() error {
		if e.state != Locked {
			return ErrNotLocked
		}
		e.setStateLocked(Unlocked, "unlocked")
		e.metrics.RecordUnlock()
		return e.recordActivityLocked()
	})
}

// Lock closes the gate if the lock is enabled.
func (e *Engine) Lock() {
	_ = e.apply(func() error {
		e.lockLocked("lock requested")
		return nil
	})
}

func (e *Engine) lockLocked(reason string) {
	if e.settings.Enabled {
		e.setStateLocked(Locked, reason)
	}
}

func (e *Engine) setStateLocked(s State, reason string) {
	if e.state == s {
		return
	}
	e.log.Debug("state %s -> %s (%s)", e.state, s, reason)
	e.state = s
	if s == Locked {
		e.metrics.RecordLock()
	}
}

func (e *Engine) inactiveLocked() bool {
	timeout := time.Duration(e.settings.InactivityTimeoutMinutes) * time.Minute
	return e.clock.Now().Sub(e.lastActivity) >= timeout
}

// SetTrigger changes the lock trigger and arms or disarms the inactivity
// check in the same step.
func (e *Engine) SetTrigger(t Trigger) error {
	if !t.Valid() {
		return gateerr.WithDetails(gateerr.ErrInvalidTrigger, map[string]string{"value": string(t)})
	}
	return e.apply(func() error {
		e.settings.Trigger = t
		e.log.Info("trigger set to %s", t)
		e.rearmLocked()
		return e.persistLocked()
	})
}

// SetInactivityTimeout changes the inactivity window in minutes.
func (e *Engine) SetInactivityTimeout(minutes int) error {
	if minutes <= 0 {
		return gateerr.WithDetails(gateerr.ErrInvalidTimeout, map[string]string{"value": fmt.Sprint(minutes)})
	}
	return e.apply(func() error {
		e.settings.InactivityTimeoutMinutes = minutes
		e.log.Info("inactivity timeout set to %d minutes", minutes)
		e.rearmLocked()
		return e.persistLocked()
	})
}

// SetBiometricEnabled records whether the user allows biometric unlock.
func (e *Engine) SetBiometricEnabled(enabled bool) error {
	return e.apply(func() error {
		e.settings.BiometricEnabled = enabled
		e.log.Info("biometric unlock enabled=%t", enabled)
		return e.persistLocked()
	})
}

func (e *Engine) persistLocked() error {
	err := e.store.Save(e.settings.Clone())
	e.metrics.RecordPersist(err)
	if err != nil {
		e.log.Error("saving lock settings: %v", err)
		return gateerr.WithCause(gateerr.ErrPersistFailed, err)
	}
	return nil
}

// rearmLocked brings the inactivity check in line with the settings. The
// check runs once the host has signalled ready, while enabled, and for the
// after_inactivity trigger. Disable clears the evaluation guard but not
// readiness, so re-enabling later in the same process re-arms.
func (e *Engine) rearmLocked() {
	want := e.ready && !e.closed &&
		e.settings.Enabled && e.settings.Trigger == TriggerAfterInactivity

	switch {
	case want && e.stopTick == nil:
		e.armGen++
		gen := e.armGen
		e.stopTick = e.sched.Every(e.tick, func() { e.scheduledTick(gen) })
		e.log.Debug("inactivity check armed every %s", e.tick)
	case !want:
		e.disarmLocked()
	}
}

func (e *Engine) disarmLocked() {
	if e.stopTick == nil {
		return
	}
	e.stopTick()
	e.stopTick = nil
	e.armGen++
	e.log.Debug("inactivity check disarmed")
}

// IsBiometricCapable reports whether the device can run a biometric challenge.
func (e *Engine) IsBiometricCapable() bool {
	return e.bio.Available()
}

// BiometricModality reports the sensor kind, or ModalityNone when unavailable.
func (e *Engine) BiometricModality() Modality {
	if !e.bio.Available() {
		return ModalityNone
	}
	return e.bio.Modality()
}

// StartBiometric begins a biometric challenge on its own goroutine. The
// engine never cancels it; ctx is handed to the provider unchanged.
// Success does not unlock the gate.
func (e *Engine) StartBiometric(ctx context.Context) *Challenge {
	ch := newChallenge()
	if !e.bio.Available() {
		ch.finish(false)
		return ch
	}

	go func() {
		start := time.Now()
		ok, err := e.bio.Authenticate(ctx, e.reason)
		if err != nil {
			e.log.Debug("biometric challenge failed: %v", err)
			ok = false
		}
		e.metrics.RecordBiometric(ok, time.Since(start))
		if ch.Detached() {
			e.log.Debug("biometric result arrived after the caller gave up; discarded")
		}
		ch.finish(ok)
	}()

	return ch
}

// AuthenticateBiometrically waits for a biometric challenge. It returns
// false on any non-success outcome, including ctx ending first.
func (e *Engine) AuthenticateBiometrically(ctx context.Context) bool {
	ch := e.StartBiometric(ctx)
	select {
	case <-ch.Done():
		return ch.Result()
	case <-ctx.Done():
		ch.Detach()
		return false
	}
}

// State returns the current gate state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Clone()
}

// LastActivity returns the last recorded activity time.
func (e *Engine) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActivity
}

// Status returns a consistent snapshot of all engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		State:        e.state,
		Phase:        e.phase.String(),
		Settings:     e.settings.Clone(),
		LastActivity: e.lastActivity,
		Evaluated:    e.evaluated,
		TimerArmed:   e.stopTick != nil,
		FailClosed:   e.failClosed,
	}
}

// PredictOnOpen reports the state InitializeOnReady would produce right
// now, without changing anything.
func (e *Engine) PredictOnOpen() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.failClosed:
		return Locked
	case !e.settings.Enabled:
		return Unlocked
	case e.settings.Trigger == TriggerOnOpen:
		return Locked
	case e.settings.Trigger == TriggerAfterInactivity && e.inactiveLocked():
		return Locked
	default:
		return Unlocked
	}
}

// Subscribe registers fn to be called with the new state after every
// change. The returned function removes the subscription.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// Close disarms the inactivity check. The engine stays readable.
func (e *Engine) Close() error {
	return e.apply(func() error {
		e.closed = true
		e.disarmLocked()
		return nil
	})
}
