package dispatch

import (
	"testing"
	"time"

	"github.com/poiesic/vibegrep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Transitions(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.to(core.StateInFlight))
	require.NoError(t, m.to(core.StateRetrying))
	require.NoError(t, m.to(core.StateInFlight))
	require.NoError(t, m.to(core.StateSucceeded))

	assert.Equal(t, []core.RetryState{
		core.StatePending, core.StateInFlight, core.StateRetrying, core.StateInFlight, core.StateSucceeded,
	}, m.Trace())

	// Terminal states accept nothing
	assert.ErrorIs(t, m.to(core.StateInFlight), ErrInvalidTransition)
	assert.ErrorIs(t, m.to(core.StateFailed), ErrInvalidTransition)
}

func TestMachine_RejectsSkips(t *testing.T) {
	m := newMachine()
	assert.ErrorIs(t, m.to(core.StateSucceeded), ErrInvalidTransition)
	assert.ErrorIs(t, m.to(core.StateRetrying), ErrInvalidTransition)
	assert.Equal(t, core.StatePending, m.state)
	assert.Len(t, m.Trace(), 1)
}

func TestNewBackoff(t *testing.T) {
	var hint time.Duration
	b := newBackoff(time.Second, 5*time.Second, &hint)

	d, stop := b.Next()
	require.False(t, stop)
	assert.Equal(t, time.Second, d)

	d, _ = b.Next()
	assert.Equal(t, 2*time.Second, d)

	// Server hint wins when longer, bounded by the cap
	hint = 4 * time.Second
	d, _ = b.Next()
	assert.Equal(t, 4*time.Second, d)

	hint = time.Minute
	d, _ = b.Next()
	assert.Equal(t, 5*time.Second, d)

	hint = 0
	d, _ = b.Next()
	assert.Equal(t, 5*time.Second, d)
}
