package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_BlocksAfterBurst(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	th := NewThrottle(3)
	th.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.False(t, th.Blocked(MethodPIN), "attempt %d", i)
		th.Fail(MethodPIN)
	}
	assert.True(t, th.Blocked(MethodPIN))
	assert.False(t, th.Blocked(MethodBiometric), "methods are independent")

	assert.InDelta(t, float64(20*time.Second), float64(th.RetryAfter(MethodPIN)), float64(time.Second))
	assert.True(t, th.Blocked(MethodPIN), "RetryAfter does not consume")

	now = now.Add(21 * time.Second)
	assert.False(t, th.Blocked(MethodPIN))
}

func TestThrottle_Reset(t *testing.T) {
	t.Parallel()

	th := NewThrottle(1)
	th.Fail(MethodPIN)
	assert.True(t, th.Blocked(MethodPIN))

	th.Reset(MethodPIN)
	assert.False(t, th.Blocked(MethodPIN))
}

func TestNewThrottle_NonPositive(t *testing.T) {
	t.Parallel()

	th := NewThrottle(0)
	assert.False(t, th.Blocked(MethodPIN))
	th.Fail(MethodPIN)
	assert.True(t, th.Blocked(MethodPIN))
}
