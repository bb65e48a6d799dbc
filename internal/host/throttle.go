package host

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits failed unlock attempts per method using a token bucket.
// A method is blocked once its bucket is empty; tokens refill at the
// configured rate.
type Throttle struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewThrottle allows perMinute failures per method before blocking.
func NewThrottle(perMinute int) *Throttle {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Blocked reports whether method has no attempts left right now.
func (t *Throttle) Blocked(method string) bool {
	return t.limiter(method).TokensAt(t.now()) < 1
}

// Fail records one failed attempt for method.
func (t *Throttle) Fail(method string) {
	t.limiter(method).AllowN(t.now(), 1)
}

// RetryAfter reports how long until method may be attempted again.
func (t *Throttle) RetryAfter(method string) time.Duration {
	lim := t.limiter(method)
	now := t.now()
	r := lim.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return 0
	}
	return r.DelayFrom(now)
}

// Reset refills method's bucket, as after a successful unlock.
func (t *Throttle) Reset(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.limiters, method)
}

func (t *Throttle) limiter(method string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[method]
	if !ok {
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[method] = lim
	}
	return lim
}
