// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dispatch

import (
	"fmt"
	"time"

	"github.com/poiesic/vibegrep/core"
	"github.com/sethvargo/go-retry"
)

// allowed lists the legal successors of every non-terminal state.
var allowed = map[core.RetryState][]core.RetryState{
	core.StatePending:  {core.StateInFlight, core.StateFailed},
	core.StateInFlight: {core.StateSucceeded, core.StateRetrying, core.StateFailed},
	core.StateRetrying: {core.StateInFlight, core.StateFailed},
}

// machine tracks the retry state of one batch and records every state it
// passes through.
type machine struct {
	state core.RetryState
	trace []core.RetryState
}

func newMachine() *machine {
	return &machine{
		state: core.StatePending,
		trace: []core.RetryState{core.StatePending},
	}
}

// to moves the machine to next, or fails if the transition is not allowed.
func (m *machine) to(next core.RetryState) error {
	for _, s := range allowed[m.state] {
		if s == next {
			m.state = next
			m.trace = append(m.trace, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
}

// Trace returns a copy of the states visited so far.
func (m *machine) Trace() []core.RetryState {
	out := make([]core.RetryState, len(m.trace))
	copy(out, m.trace)
	return out
}

// newBackoff builds the delay schedule between attempts: exponential from
// base, capped at maxDelay. A server hint stored in *hint replaces the
// computed delay when it is longer, still bounded by maxDelay.
func newBackoff(base, maxDelay time.Duration, hint *time.Duration) retry.Backoff {
	b := retry.WithCappedDuration(maxDelay, retry.NewExponential(base))
	return retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := b.Next()
		if stop {
			return 0, true
		}
		if hint != nil && *hint > next {
			next = min(*hint, maxDelay)
		}
		return next, false
	})
}
